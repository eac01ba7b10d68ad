package mediaupload

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vspstream/go-mediaupload/credential"
	"github.com/vspstream/go-mediaupload/mediaupload/network"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Login(ctx context.Context, username, password string) (credential.Token, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(credential.Token), args.Error(1)
}

func (m *mockAPI) OpenSession(ctx context.Context, title string, totalSize int64, token credential.Token) (network.Session, error) {
	args := m.Called(ctx, title, totalSize, token)
	return args.Get(0).(network.Session), args.Error(1)
}

func (m *mockAPI) SendPart(ctx context.Context, sessionID string, index int, payload []byte, token credential.Token) error {
	args := m.Called(ctx, sessionID, index, len(payload), token)
	return args.Error(0)
}

func (m *mockAPI) Commit(ctx context.Context, sessionID string, token credential.Token) (string, error) {
	args := m.Called(ctx, sessionID, token)
	return args.String(0), args.Error(1)
}

func (m *mockAPI) ListCatalog(ctx context.Context, token credential.Token) ([]network.CatalogEntry, error) {
	args := m.Called(ctx, token)
	return args.Get(0).([]network.CatalogEntry), args.Error(1)
}

func (m *mockAPI) givenSession(title string, size int64) *mockAPI {
	m.On("OpenSession", mock.Anything, title, size, credential.Token("token")).
		Return(network.Session{ID: "upload_1", Title: title, TotalSize: size}, nil).Once()
	return m
}

func (m *mockAPI) givenPartSucceeds(index, size int) *mockAPI {
	m.On("SendPart", mock.Anything, "upload_1", index, size, credential.Token("token")).Return(nil).Once()
	return m
}

func (m *mockAPI) givenPartFails(index, size int, reason error) *mockAPI {
	m.On("SendPart", mock.Anything, "upload_1", index, size, credential.Token("token")).Return(reason).Once()
	return m
}

func (m *mockAPI) givenCommit(artifactID string, reason error) *mockAPI {
	m.On("Commit", mock.Anything, "upload_1", credential.Token("token")).Return(artifactID, reason).Once()
	return m
}
