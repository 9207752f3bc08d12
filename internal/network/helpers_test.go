package network

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"net"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// generateTestHostKey writes an RSA host key in PEM form
func generateTestHostKey(t *testing.T, path string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0600))
}

// freeAddr reserves a loopback port and releases it for the caller
func freeAddr(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

// sink records what each session read until its channel ended
type sink struct {
	mu       sync.Mutex
	received [][]byte
	errs     []error
	ended    chan struct{}
}

func newSink() *sink {
	return &sink{ended: make(chan struct{}, 16)}
}

func (s *sink) handle(ch io.ReadCloser, _ string) {
	data, err := io.ReadAll(ch)
	s.mu.Lock()
	s.received = append(s.received, data)
	s.errs = append(s.errs, err)
	s.mu.Unlock()
	s.ended <- struct{}{}
}

func (s *sink) sessions() ([][]byte, []error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.received...), append([]error(nil), s.errs...)
}

// blockingHandler holds each session open until release is closed
type blockingHandler struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingHandler() *blockingHandler {
	return &blockingHandler{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (b *blockingHandler) handle(ch io.ReadCloser, _ string) {
	b.started <- struct{}{}
	<-b.release
}
