package mocks

import (
	"context"
	"time"

	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockSubmissionRepository struct {
	mock.Mock
}

type MockSubmissionRepository_Expecter struct {
	mock *mock.Mock
}

func NewMockSubmissionRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSubmissionRepository {
	m := &MockSubmissionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MockSubmissionRepository) EXPECT() *MockSubmissionRepository_Expecter {
	return &MockSubmissionRepository_Expecter{mock: &_m.Mock}
}

func (_m *MockSubmissionRepository) CreateSubmissions(ctx context.Context, userID string, submissions []domain.Submission, charge decimal.Decimal) error {
	ret := _m.Called(ctx, userID, submissions, charge)
	return ret.Error(0)
}

func (_e *MockSubmissionRepository_Expecter) CreateSubmissions(ctx, userID, submissions, charge interface{}) *mock.Call {
	return _e.mock.On("CreateSubmissions", ctx, userID, submissions, charge)
}

func (_m *MockSubmissionRepository) ListSubmissions(ctx context.Context, userID string, limit, offset int) ([]domain.Submission, int, error) {
	ret := _m.Called(ctx, userID, limit, offset)
	var subs []domain.Submission
	if v := ret.Get(0); v != nil {
		subs = v.([]domain.Submission)
	}
	return subs, ret.Int(1), ret.Error(2)
}

func (_e *MockSubmissionRepository_Expecter) ListSubmissions(ctx, userID, limit, offset interface{}) *mock.Call {
	return _e.mock.On("ListSubmissions", ctx, userID, limit, offset)
}

func (_m *MockSubmissionRepository) GetSubmission(ctx context.Context, submissionID, userID string) (*domain.Submission, error) {
	ret := _m.Called(ctx, submissionID, userID)
	var sub *domain.Submission
	if v := ret.Get(0); v != nil {
		sub = v.(*domain.Submission)
	}
	return sub, ret.Error(1)
}

func (_e *MockSubmissionRepository_Expecter) GetSubmission(ctx, submissionID, userID interface{}) *mock.Call {
	return _e.mock.On("GetSubmission", ctx, submissionID, userID)
}

func (_m *MockSubmissionRepository) DeleteSubmission(ctx context.Context, submissionID, userID string) (*domain.Submission, error) {
	ret := _m.Called(ctx, submissionID, userID)
	var sub *domain.Submission
	if v := ret.Get(0); v != nil {
		sub = v.(*domain.Submission)
	}
	return sub, ret.Error(1)
}

func (_e *MockSubmissionRepository_Expecter) DeleteSubmission(ctx, submissionID, userID interface{}) *mock.Call {
	return _e.mock.On("DeleteSubmission", ctx, submissionID, userID)
}

func (_m *MockSubmissionRepository) GetDocument(ctx context.Context, documentID string) (*domain.SubmissionDocument, error) {
	ret := _m.Called(ctx, documentID)
	var doc *domain.SubmissionDocument
	if v := ret.Get(0); v != nil {
		doc = v.(*domain.SubmissionDocument)
	}
	return doc, ret.Error(1)
}

func (_e *MockSubmissionRepository_Expecter) GetDocument(ctx, documentID interface{}) *mock.Call {
	return _e.mock.On("GetDocument", ctx, documentID)
}

type MockAccountRepository struct {
	mock.Mock
}

type MockAccountRepository_Expecter struct {
	mock *mock.Mock
}

func NewMockAccountRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAccountRepository {
	m := &MockAccountRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MockAccountRepository) EXPECT() *MockAccountRepository_Expecter {
	return &MockAccountRepository_Expecter{mock: &_m.Mock}
}

func (_m *MockAccountRepository) GetAccount(ctx context.Context, userID string) (*domain.Account, error) {
	ret := _m.Called(ctx, userID)
	var acc *domain.Account
	if v := ret.Get(0); v != nil {
		acc = v.(*domain.Account)
	}
	return acc, ret.Error(1)
}

func (_e *MockAccountRepository_Expecter) GetAccount(ctx, userID interface{}) *mock.Call {
	return _e.mock.On("GetAccount", ctx, userID)
}

type MockJobRepository struct {
	mock.Mock
}

type MockJobRepository_Expecter struct {
	mock *mock.Mock
}

func NewMockJobRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockJobRepository {
	m := &MockJobRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MockJobRepository) EXPECT() *MockJobRepository_Expecter {
	return &MockJobRepository_Expecter{mock: &_m.Mock}
}

func (_m *MockJobRepository) ListCompletedJobs(ctx context.Context, offset, limit int) ([]domain.JobRecord, error) {
	ret := _m.Called(ctx, offset, limit)
	var jobs []domain.JobRecord
	if v := ret.Get(0); v != nil {
		jobs = v.([]domain.JobRecord)
	}
	return jobs, ret.Error(1)
}

func (_e *MockJobRepository_Expecter) ListCompletedJobs(ctx, offset, limit interface{}) *mock.Call {
	return _e.mock.On("ListCompletedJobs", ctx, offset, limit)
}

type MockHistoryRepository struct {
	mock.Mock
}

type MockHistoryRepository_Expecter struct {
	mock *mock.Mock
}

func NewMockHistoryRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockHistoryRepository {
	m := &MockHistoryRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MockHistoryRepository) EXPECT() *MockHistoryRepository_Expecter {
	return &MockHistoryRepository_Expecter{mock: &_m.Mock}
}

func (_m *MockHistoryRepository) HasHistoryEntry(ctx context.Context, userID, serviceID, fileName string, from, to time.Time) (bool, error) {
	ret := _m.Called(ctx, userID, serviceID, fileName, from, to)
	return ret.Bool(0), ret.Error(1)
}

func (_e *MockHistoryRepository_Expecter) HasHistoryEntry(ctx, userID, serviceID, fileName, from, to interface{}) *mock.Call {
	return _e.mock.On("HasHistoryEntry", ctx, userID, serviceID, fileName, from, to)
}

func (_m *MockHistoryRepository) CreateHistoryEntry(ctx context.Context, entry *domain.HistoryEntry) error {
	ret := _m.Called(ctx, entry)
	return ret.Error(0)
}

func (_e *MockHistoryRepository_Expecter) CreateHistoryEntry(ctx, entry interface{}) *mock.Call {
	return _e.mock.On("CreateHistoryEntry", ctx, entry)
}
