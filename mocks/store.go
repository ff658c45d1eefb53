package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

type MockStore_Expecter struct {
	mock *mock.Mock
}

func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStore {
	m := &MockStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MockStore) EXPECT() *MockStore_Expecter {
	return &MockStore_Expecter{mock: &_m.Mock}
}

func (_m *MockStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	ret := _m.Called(ctx, key, r, size, contentType)
	return ret.Error(0)
}

func (_e *MockStore_Expecter) Put(ctx, key, r, size, contentType interface{}) *mock.Call {
	return _e.mock.On("Put", ctx, key, r, size, contentType)
}

func (_m *MockStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	ret := _m.Called(ctx, key)
	var rc io.ReadCloser
	if v := ret.Get(0); v != nil {
		rc = v.(io.ReadCloser)
	}
	return rc, ret.Error(1)
}

func (_e *MockStore_Expecter) Get(ctx, key interface{}) *mock.Call {
	return _e.mock.On("Get", ctx, key)
}

func (_m *MockStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	ret := _m.Called(ctx, srcKey, dstKey)
	return ret.Error(0)
}

func (_e *MockStore_Expecter) Copy(ctx, srcKey, dstKey interface{}) *mock.Call {
	return _e.mock.On("Copy", ctx, srcKey, dstKey)
}

func (_m *MockStore) Delete(ctx context.Context, key string) error {
	ret := _m.Called(ctx, key)
	return ret.Error(0)
}

func (_e *MockStore_Expecter) Delete(ctx, key interface{}) *mock.Call {
	return _e.mock.On("Delete", ctx, key)
}

func (_m *MockStore) DeletePrefix(ctx context.Context, prefix string) error {
	ret := _m.Called(ctx, prefix)
	return ret.Error(0)
}

func (_e *MockStore_Expecter) DeletePrefix(ctx, prefix interface{}) *mock.Call {
	return _e.mock.On("DeletePrefix", ctx, prefix)
}
