package mocks

import (
	"context"

	"github.com/mediaforge/mediaforge/internal/provider"
	"github.com/mediaforge/mediaforge/internal/upload"
	"github.com/stretchr/testify/mock"
)

type AdapterMock struct {
	mock.Mock
	NameValue string
}

func (m *AdapterMock) Name() string { return m.NameValue }

func (m *AdapterMock) Generate(ctx context.Context, req provider.GenerateRequest, onProgress provider.ProgressFunc) (*provider.GenerateResult, error) {
	args := m.Called(ctx, req, onProgress)

	res, _ := args.Get(0).(*provider.GenerateResult)
	return res, args.Error(1)
}

type SpeechAdapterMock struct {
	mock.Mock
	NameValue string
}

func (m *SpeechAdapterMock) Name() string { return m.NameValue }

func (m *SpeechAdapterMock) Synthesize(ctx context.Context, req provider.SpeechRequest) ([]byte, error) {
	args := m.Called(ctx, req)

	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type BlobStoreMock struct {
	mock.Mock
}

func (m *BlobStoreMock) Upload(ctx context.Context, data []byte, name, ownerID string) (*upload.Result, error) {
	args := m.Called(ctx, data, name, ownerID)

	res, _ := args.Get(0).(*upload.Result)
	return res, args.Error(1)
}

func (m *BlobStoreMock) Fetch(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)

	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}
