package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/movies-backend/pkg/config"
)

func TestNewServer(t *testing.T) {
	cfg := &config.Config{
		App:  config.AppConfig{Port: "3000"},
		HTTP: config.HTTPConfig{ReadHeaderTimeout: 2 * time.Second, ReadTimeout: 5 * time.Second, WriteTimeout: 10 * time.Second, IdleTimeout: time.Minute},
	}
	handler := http.NotFoundHandler()

	srv := NewServer(cfg, handler)

	assert.Equal(t, ":3000", srv.Addr)
	assert.Equal(t, 2*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 5*time.Second, srv.ReadTimeout)
	assert.Equal(t, 10*time.Second, srv.WriteTimeout)
	assert.Equal(t, time.Minute, srv.IdleTimeout)
	assert.NotNil(t, srv.Handler)
}
