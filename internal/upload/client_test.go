package upload_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/session"
	"github.com/pluma/prontuario/internal/storage"
	"github.com/pluma/prontuario/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putCall struct {
	path string
	data []byte
	opts storage.PutOptions
}

// fakeStore records puts and can fail either step.
type fakeStore struct {
	puts   []putCall
	putErr error
	url    string
	urlErr error
}

func (f *fakeStore) Put(_ context.Context, p string, r io.Reader, _ int64, opts storage.PutOptions) error {
	data, _ := io.ReadAll(r)
	f.puts = append(f.puts, putCall{path: p, data: data, opts: opts})
	return f.putErr
}

func (f *fakeStore) Open(context.Context, string) (io.ReadCloser, storage.ObjectInfo, error) {
	return nil, storage.ObjectInfo{}, storage.ErrNoObject
}

func (f *fakeStore) PublicURL(_ context.Context, p string) (string, error) {
	if f.url == "" {
		return "", f.urlErr
	}
	return f.url + p, f.urlErr
}

func (f *fakeStore) Delete(context.Context, string) error { return nil }

func signedIn(userID string) session.Source {
	return session.SourceFunc(func(context.Context) (session.Session, error) {
		return session.Session{UserID: userID}, nil
	})
}

func failingSession(err error) session.Source {
	return session.SourceFunc(func(context.Context) (session.Session, error) {
		return session.Session{}, err
	})
}

func audioBlob(size int, contentType, filename string) *domain.Blob {
	return &domain.Blob{Data: bytes.Repeat([]byte{1}, size), ContentType: contentType, Filename: filename}
}

func TestUpload_ClientStrategySuccess(t *testing.T) {
	store := &fakeStore{url: "https://cdn.example/"}
	client := upload.New(store, upload.ClientStrategy{}, 0, nil)

	result := client.Upload(context.Background(), signedIn("user-1"), audioBlob(10, "audio/ogg", ""))

	require.True(t, result.Success, result.ErrorMessage())
	require.Len(t, store.puts, 1)

	put := store.puts[0]
	assert.True(t, strings.HasPrefix(put.path, "user-1/"), put.path)
	assert.True(t, strings.HasSuffix(put.path, ".webm"), put.path)
	assert.Equal(t, "audio/webm", put.opts.ContentType)
	assert.Equal(t, "max-age=3600", put.opts.CacheControl)
	assert.False(t, put.opts.Overwrite)
	assert.Len(t, put.data, 10)

	assert.Equal(t, "https://cdn.example/"+put.path, result.AudioURL)
	assert.Equal(t, put.path, result.Path)
}

func TestUpload_UniqueNames(t *testing.T) {
	store := &fakeStore{url: "https://cdn.example/"}
	client := upload.New(store, upload.ClientStrategy{}, 0, nil)

	for range 3 {
		require.True(t, client.Upload(context.Background(), signedIn("u"), audioBlob(1, "", "")).Success)
	}

	seen := map[string]bool{}
	for _, put := range store.puts {
		assert.False(t, seen[put.path], "duplicate object name %s", put.path)
		seen[put.path] = true
	}
}

func TestUpload_Failures(t *testing.T) {
	tests := []struct {
		name        string
		sess        session.Source
		strategy    upload.Strategy
		blob        *domain.Blob
		store       *fakeStore
		wantKind    domain.Kind
		wantMessage string
		wantPuts    int
	}{
		{
			name:        "no session",
			sess:        failingSession(session.ErrNoSession),
			strategy:    upload.ClientStrategy{},
			blob:        audioBlob(10, "audio/webm", ""),
			store:       &fakeStore{url: "u"},
			wantKind:    domain.KindUnauthenticated,
			wantMessage: "Usuário não autenticado. Faça login para continuar.",
		},
		{
			name:        "tampered session",
			sess:        failingSession(session.ErrInvalidToken),
			strategy:    upload.ClientStrategy{},
			blob:        audioBlob(10, "audio/webm", ""),
			store:       &fakeStore{url: "u"},
			wantKind:    domain.KindUnauthenticated,
			wantMessage: "Erro de autenticação. Tente fazer login novamente.",
		},
		{
			name:        "empty blob",
			sess:        signedIn("u"),
			strategy:    upload.ServerStrategy{},
			blob:        &domain.Blob{ContentType: "audio/wav"},
			store:       &fakeStore{url: "u"},
			wantKind:    domain.KindInvalidMediaType,
			wantMessage: "Nenhum arquivo de áudio fornecido.",
		},
		{
			name:        "too large",
			sess:        signedIn("u"),
			strategy:    upload.ClientStrategy{},
			blob:        audioBlob(domain.MaxAudioBytes+1, "audio/webm", ""),
			store:       &fakeStore{url: "u"},
			wantKind:    domain.KindPayloadTooLarge,
			wantMessage: "Arquivo de áudio muito grande. Máximo 50MB.",
		},
		{
			name:        "not audio",
			sess:        signedIn("u"),
			strategy:    upload.ServerStrategy{},
			blob:        audioBlob(10, "video/mp4", "clip.mp4"),
			store:       &fakeStore{url: "u"},
			wantKind:    domain.KindInvalidMediaType,
			wantMessage: "Arquivo deve ser um áudio válido.",
		},
		{
			name:        "storage failure",
			sess:        signedIn("u"),
			strategy:    upload.ClientStrategy{},
			blob:        audioBlob(10, "audio/webm", ""),
			store:       &fakeStore{putErr: errors.New("bucket offline")},
			wantKind:    domain.KindStorageUnavailable,
			wantMessage: "Falha no upload do áudio: bucket offline",
			wantPuts:    1,
		},
		{
			name:        "collision is not retried",
			sess:        signedIn("u"),
			strategy:    upload.ClientStrategy{},
			blob:        audioBlob(10, "audio/webm", ""),
			store:       &fakeStore{putErr: storage.ErrExists},
			wantKind:    domain.KindStorageUnavailable,
			wantMessage: "Falha no upload do áudio: storage: object already exists",
			wantPuts:    1,
		},
		{
			name:        "no public url",
			sess:        signedIn("u"),
			strategy:    upload.ClientStrategy{},
			blob:        audioBlob(10, "audio/webm", ""),
			store:       &fakeStore{},
			wantKind:    domain.KindStorageUnavailable,
			wantMessage: "Não foi possível obter a URL pública do áudio.",
			wantPuts:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := upload.New(tt.store, tt.strategy, 0, nil)

			result := client.Upload(context.Background(), tt.sess, tt.blob)

			require.False(t, result.Success)
			require.NotNil(t, result.Err)
			assert.Equal(t, tt.wantKind, result.Err.Kind)
			assert.Equal(t, tt.wantMessage, result.ErrorMessage())
			assert.Empty(t, result.AudioURL)
			assert.Len(t, tt.store.puts, tt.wantPuts)
		})
	}
}

func TestUpload_SixtyMiBNeverReachesStorage(t *testing.T) {
	store := &fakeStore{url: "u"}
	client := upload.New(store, upload.ClientStrategy{}, 0, nil)

	result := client.Upload(context.Background(), signedIn("u"), audioBlob(60*1024*1024, "audio/webm", ""))

	require.False(t, result.Success)
	assert.True(t, strings.HasPrefix(result.ErrorMessage(), "Arquivo de áudio muito grande"))
	assert.Empty(t, store.puts)
}

func TestUpload_CustomLimit(t *testing.T) {
	store := &fakeStore{url: "u"}
	client := upload.New(store, upload.ClientStrategy{}, 2*1024*1024, nil)

	result := client.Upload(context.Background(), signedIn("u"), audioBlob(3*1024*1024, "audio/webm", ""))

	require.False(t, result.Success)
	assert.Equal(t, "Arquivo de áudio muito grande. Máximo 2MB.", result.ErrorMessage())
}

func TestStrategies(t *testing.T) {
	tests := []struct {
		name     string
		strategy upload.Strategy
		blob     *domain.Blob
		wantType string
		wantExt  string
	}{
		{"client ignores declared type", upload.ClientStrategy{}, audioBlob(1, "audio/mpeg", "a.mp3"), "audio/webm", "webm"},
		{"server keeps file extension", upload.ServerStrategy{}, audioBlob(1, "audio/wav", "sessao.M4A"), "audio/wav", "m4a"},
		{"server falls back to content type", upload.ServerStrategy{}, audioBlob(1, "audio/ogg; codecs=opus", ""), "audio/ogg; codecs=opus", "ogg"},
		{"server default extension", upload.ServerStrategy{}, audioBlob(1, "audio/x-unknown-codec", ""), "audio/x-unknown-codec", "wav"},
		{"encoding trusts recorder", upload.EncodingStrategy{}, audioBlob(1, "audio/mpeg", "gravacao.mp3"), "audio/mpeg", "mp3"},
		{"encoding default", upload.EncodingStrategy{}, audioBlob(1, "", ""), "audio/mpeg", "mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contentType, ext, err := tt.strategy.Describe(tt.blob)
			require.Nil(t, err)
			assert.Equal(t, tt.wantType, contentType)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}
