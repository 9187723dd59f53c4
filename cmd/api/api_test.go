package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"storefront/internal/payments"
	"storefront/internal/ratelimiter"
	"storefront/internal/store"

	"go.uber.org/zap"
)

type fakeProducts struct {
	mu       sync.Mutex
	items    map[string]store.Product
	seq      int
	failNext error
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{items: make(map[string]store.Product)}
}

func (f *fakeProducts) List(_ context.Context) ([]store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]store.Product, 0, len(f.items))
	for _, p := range f.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeProducts) GetByID(_ context.Context, id string) (*store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProducts) Create(_ context.Context, p *store.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failNext; err != nil {
		f.failNext = nil
		return err
	}
	f.seq++
	p.ID = fmt.Sprintf("p%d", f.seq)
	p.CreatedAt = time.Unix(int64(f.seq), 0)
	p.UpdatedAt = p.CreatedAt
	p.SetStock(p.Stock, p.IsOutOfStock)
	f.items[p.ID] = *p
	return nil
}

func (f *fakeProducts) Update(_ context.Context, p *store.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failNext; err != nil {
		f.failNext = nil
		return err
	}
	if _, ok := f.items[p.ID]; !ok {
		return store.ErrNotFound
	}
	p.SetStock(p.Stock, p.IsOutOfStock)
	f.items[p.ID] = *p
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeFeedbacks struct {
	mu        sync.Mutex
	items     []store.Feedback
	lastLimit int
}

func (f *fakeFeedbacks) Create(_ context.Context, fb *store.Feedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fb.ID = fmt.Sprintf("f%d", len(f.items)+1)
	fb.CreatedAt = time.Unix(int64(len(f.items)+1), 0)
	f.items = append(f.items, *fb)
	return nil
}

func (f *fakeFeedbacks) List(_ context.Context, limit int) ([]store.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastLimit = limit
	out := make([]store.Feedback, 0, limit)
	for i := len(f.items) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.items[i])
	}
	return out, nil
}

type fakeUploader struct {
	mu       sync.Mutex
	uploads  []string
	deleted  []string
	failWith error
}

func (f *fakeUploader) Upload(_ context.Context, file io.Reader, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return "", f.failWith
	}
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	url := fmt.Sprintf("https://res.cloudinary.com/demo/image/upload/v1/products/%d_%s", len(f.uploads)+1, name)
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeUploader) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, url)
	return nil
}

type fakePayments struct {
	mu         sync.Mutex
	initiated  []payments.CheckoutRequest
	verified   []string
	initResult payments.InitResult
	initErr    error
	verifyOut  payments.VerifyOutcome
	verifyErr  error
}

func (f *fakePayments) Initiate(_ context.Context, req payments.CheckoutRequest) (payments.InitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.initiated = append(f.initiated, req)
	return f.initResult, f.initErr
}

func (f *fakePayments) Verify(_ context.Context, reference string) (payments.VerifyOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.verified = append(f.verified, reference)
	return f.verifyOut, f.verifyErr
}

type testApp struct {
	*application
	products  *fakeProducts
	feedbacks *fakeFeedbacks
	uploader  *fakeUploader
	payments  *fakePayments
}

func newTestApplication(t *testing.T, cfg config) *testApp {
	t.Helper()

	products := newFakeProducts()
	feedbacks := &fakeFeedbacks{}
	uploader := &fakeUploader{}
	pay := &fakePayments{}

	if cfg.rateLimiter.TimeFrame == 0 {
		cfg.rateLimiter = ratelimiter.Config{RequestsPerTimeFrame: 20, TimeFrame: 5 * time.Second}
	}

	app := &application{
		config: cfg,
		store: store.Storage{
			Products:  products,
			Feedbacks: feedbacks,
		},
		logger:   zap.NewNop().Sugar(),
		media:    uploader,
		payments: pay,
		rateLimiter: ratelimiter.NewFixedWindowLimiter(
			cfg.rateLimiter.RequestsPerTimeFrame,
			cfg.rateLimiter.TimeFrame,
		),
	}

	return &testApp{
		application: app,
		products:    products,
		feedbacks:   feedbacks,
		uploader:    uploader,
		payments:    pay,
	}
}

func executeRequest(req *http.Request, mux http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}
