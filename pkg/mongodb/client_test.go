package mongodb

import (
	"context"
	"testing"

	"github.com/angelmondragon/movies-backend/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestDatabaseName(t *testing.T) {
	tests := []struct {
		uri      string
		fallback string
		want     string
	}{
		{uri: "mongodb://localhost:27017/moviedb", fallback: "other", want: "moviedb"},
		{uri: "mongodb://localhost:27017/", fallback: "moviedb", want: "moviedb"},
		{uri: "mongodb://localhost:27017", fallback: "moviedb", want: "moviedb"},
		{uri: "mongodb+srv://user:pw@cluster.example.net/films?retryWrites=true", fallback: "moviedb", want: "films"},
		{uri: "://bad", fallback: "moviedb", want: "moviedb"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, DatabaseName(tt.uri, tt.fallback), tt.uri)
	}
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{Driver: config.DriverMongo}, nil)
	require.Error(t, err)
}
