package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu          sync.Mutex
	initCalls   int
	verifyCalls int
	lastInit    InitializeRequest

	initErr      error
	verifyResult []VerifyResult
	verifyErr    []error
}

func (f *fakeGateway) InitializeTransaction(_ context.Context, req InitializeRequest) (InitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	f.lastInit = req
	if f.initErr != nil {
		return InitResult{}, f.initErr
	}
	return InitResult{Reference: req.Reference, PublicKey: "pk_test", AccessCode: "ac"}, nil
}

func (f *fakeGateway) VerifyTransaction(_ context.Context, reference string) (VerifyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.verifyCalls
	f.verifyCalls++

	var (
		res VerifyResult
		err error
	)
	if i < len(f.verifyResult) {
		res = f.verifyResult[i]
	} else if len(f.verifyResult) > 0 {
		res = f.verifyResult[len(f.verifyResult)-1]
	}
	if i < len(f.verifyErr) {
		err = f.verifyErr[i]
	}
	res.Reference = reference
	return res, err
}

type fakeReceipts struct {
	sent chan Receipt
}

func (f *fakeReceipts) SendReceipt(_ context.Context, r Receipt) error {
	f.sent <- r
	return nil
}

func newTestService(t *testing.T, gw Gateway, cfg Config) *Service {
	t.Helper()
	refs, err := NewReferenceGenerator("SHOP", "test")
	require.NoError(t, err)
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}
	return NewService(gw, refs, nil, cfg)
}

func validCheckout() CheckoutRequest {
	return CheckoutRequest{
		CustomerName: "Ada Obi",
		Address:      "12 Marina Road",
		Phone:        "08030000000",
		BusStop:      "CMS",
		DeliveryMode: "pickup",
		Email:        "ada@example.com",
		CartItems:    []CartItem{CartItem(`{"productId":"p1","quantity":2}`)},
		Amount:       5000,
	}
}

func TestInitiate_ScalesAmountAndCarriesMetadata(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(t, gw, Config{})

	res, err := svc.Initiate(context.Background(), validCheckout())
	require.NoError(t, err)

	assert.Regexp(t, referencePattern, res.Reference)
	assert.Equal(t, "pk_test", res.PublicKey)
	assert.Equal(t, int64(500000), gw.lastInit.Amount)
	assert.Equal(t, DefaultCurrency, gw.lastInit.Currency)
	assert.Equal(t, res.Reference, gw.lastInit.Reference)
	assert.Equal(t, "ada@example.com", gw.lastInit.Email)

	md := gw.lastInit.Metadata
	assert.Equal(t, "Ada Obi", md.CustomerName)
	assert.Equal(t, "12 Marina Road", md.Address)
	assert.Equal(t, "08030000000", md.Phone)
	assert.Equal(t, "CMS", md.BusStop)
	assert.Equal(t, "pickup", md.DeliveryMode)
	assert.Equal(t, validCheckout().CartItems, md.CartItems)
}

func TestInitiate_NeverRepeatsReferences(t *testing.T) {
	svc := newTestService(t, &fakeGateway{}, Config{})

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		res, err := svc.Initiate(context.Background(), validCheckout())
		require.NoError(t, err)
		require.False(t, seen[res.Reference])
		seen[res.Reference] = true
	}
}

func TestInitiate_RoundsFractionalAmounts(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(t, gw, Config{Currency: "ngn"})

	req := validCheckout()
	req.Amount = 19.99
	_, err := svc.Initiate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(1999), gw.lastInit.Amount)
	assert.Equal(t, "NGN", gw.lastInit.Currency)
}

func TestInitiate_InvalidRequestSkipsGateway(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CheckoutRequest)
		field  string
	}{
		{"missing email", func(r *CheckoutRequest) { r.Email = "" }, "email"},
		{"malformed email", func(r *CheckoutRequest) { r.Email = "not-an-email" }, "email"},
		{"missing name", func(r *CheckoutRequest) { r.CustomerName = "   " }, "customerName"},
		{"missing address", func(r *CheckoutRequest) { r.Address = "" }, "address"},
		{"missing phone", func(r *CheckoutRequest) { r.Phone = "" }, "phone"},
		{"empty cart", func(r *CheckoutRequest) { r.CartItems = []CartItem{} }, "cartItems"},
		{"nil cart", func(r *CheckoutRequest) { r.CartItems = nil }, "cartItems"},
		{"zero amount", func(r *CheckoutRequest) { r.Amount = 0 }, "amount"},
		{"negative amount", func(r *CheckoutRequest) { r.Amount = -10 }, "amount"},
		{"below minor unit", func(r *CheckoutRequest) { r.Amount = 0.001 }, "amount"},
		{"rounds to zero", func(r *CheckoutRequest) { r.Amount = 0.004 }, "amount"},
		{"overflows minor unit", func(r *CheckoutRequest) { r.Amount = 1e17 }, "amount"},
		{"just above limit", func(r *CheckoutRequest) { r.Amount = math.MaxInt64 / 100 }, "amount"},
		{"huge amount", func(r *CheckoutRequest) { r.Amount = 1e300 }, "amount"},
		{"infinite amount", func(r *CheckoutRequest) { r.Amount = math.Inf(1) }, "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			svc := newTestService(t, gw, Config{})

			req := validCheckout()
			tt.mutate(&req)

			_, err := svc.Initiate(context.Background(), req)
			require.ErrorIs(t, err, ErrInvalidRequest)
			assert.Contains(t, err.Error(), tt.field)
			assert.Equal(t, 0, gw.initCalls)
			assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
		})
	}
}

func TestInitiate_SmallestAndLargestAmounts(t *testing.T) {
	tests := []struct {
		amount float64
		want   int64
	}{
		{0.01, 1},
		{0.005, 1},
		{1e15, 1e17},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.amount), func(t *testing.T) {
			gw := &fakeGateway{}
			svc := newTestService(t, gw, Config{})

			req := validCheckout()
			req.Amount = tt.amount
			_, err := svc.Initiate(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, gw.lastInit.Amount)
			assert.Positive(t, gw.lastInit.Amount)
		})
	}
}

func TestInitiate_ForwardsAnyCartItemShape(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(t, gw, Config{})

	req := validCheckout()
	req.CartItems = []CartItem{CartItem(`"sku-1"`), CartItem(`42`), CartItem(`{"id":"p2","opts":["red"]}`)}
	_, err := svc.Initiate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.CartItems, gw.lastInit.Metadata.CartItems)
}

func TestInitiate_GatewayFailuresBecomeInitiationFailed(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"rejected", fmt.Errorf("%w: bad email", ErrGatewayRejected), http.StatusBadRequest},
		{"unavailable", fmt.Errorf("%w: dial tcp", ErrGatewayUnavailable), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, &fakeGateway{initErr: tt.err}, Config{})

			res, err := svc.Initiate(context.Background(), validCheckout())
			require.ErrorIs(t, err, ErrPaymentInitiationFailed)
			assert.ErrorIs(t, err, tt.err)
			assert.Empty(t, res.Reference)
			assert.Equal(t, tt.status, HTTPStatus(err))
		})
	}
}

func TestVerify_Success(t *testing.T) {
	gw := &fakeGateway{verifyResult: []VerifyResult{{Status: VerifySuccess, GatewayStatus: "success"}}}
	svc := newTestService(t, gw, Config{})

	out, err := svc.Verify(context.Background(), "SHOP-1-abc")
	require.NoError(t, err)
	assert.Equal(t, VerifySuccess, out.Status)
}

func TestVerify_AbandonedIsFailed(t *testing.T) {
	gw := &fakeGateway{verifyResult: []VerifyResult{{Status: VerifyFailed, GatewayStatus: "abandoned"}}}
	svc := newTestService(t, gw, Config{})

	out, err := svc.Verify(context.Background(), "SHOP-1-abc")
	require.NoError(t, err)
	assert.Equal(t, VerifyFailed, out.Status)
}

func TestVerify_TransportFailureIsSoftFailed(t *testing.T) {
	outage := fmt.Errorf("%w: connection refused", ErrGatewayUnavailable)
	gw := &fakeGateway{
		verifyResult: []VerifyResult{{Status: VerifyError}},
		verifyErr:    []error{outage, outage},
	}
	svc := newTestService(t, gw, Config{VerifyAttempts: 2})

	out, err := svc.Verify(context.Background(), "SHOP-1-abc")
	require.NoError(t, err)
	assert.Equal(t, VerifyFailed, out.Status)
	assert.Equal(t, 2, gw.verifyCalls)
}

func TestVerify_StrictSurfacesOutage(t *testing.T) {
	outage := fmt.Errorf("%w: connection refused", ErrGatewayUnavailable)
	gw := &fakeGateway{verifyErr: []error{outage}}
	svc := newTestService(t, gw, Config{VerifyAttempts: 1, Strict: true})

	out, err := svc.Verify(context.Background(), "SHOP-1-abc")
	require.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.Equal(t, VerifyError, out.Status)
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(err))
}

func TestVerify_RetriesOutageThenSucceeds(t *testing.T) {
	gw := &fakeGateway{
		verifyResult: []VerifyResult{{Status: VerifyError}, {Status: VerifySuccess}},
		verifyErr:    []error{fmt.Errorf("%w: reset", ErrGatewayUnavailable), nil},
	}
	svc := newTestService(t, gw, Config{VerifyAttempts: 3})

	out, err := svc.Verify(context.Background(), "SHOP-1-abc")
	require.NoError(t, err)
	assert.Equal(t, VerifySuccess, out.Status)
	assert.Equal(t, 2, gw.verifyCalls)
}

func TestVerify_DoesNotRetryOtherErrors(t *testing.T) {
	gw := &fakeGateway{verifyErr: []error{errors.New("boom")}}
	svc := newTestService(t, gw, Config{VerifyAttempts: 3})

	out, err := svc.Verify(context.Background(), "SHOP-1-abc")
	require.NoError(t, err)
	assert.Equal(t, VerifyFailed, out.Status)
	assert.Equal(t, 1, gw.verifyCalls)
}

func TestVerify_RequiresReference(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(t, gw, Config{})

	_, err := svc.Verify(context.Background(), " ")
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, 0, gw.verifyCalls)
}

func TestVerify_IsRepeatable(t *testing.T) {
	gw := &fakeGateway{verifyResult: []VerifyResult{{Status: VerifySuccess}}}
	svc := newTestService(t, gw, Config{})

	for i := 0; i < 3; i++ {
		out, err := svc.Verify(context.Background(), "SHOP-1-abc")
		require.NoError(t, err)
		assert.Equal(t, VerifySuccess, out.Status)
	}
	assert.Equal(t, 3, gw.verifyCalls)
}

func TestVerify_SendsReceiptOnSuccess(t *testing.T) {
	gw := &fakeGateway{verifyResult: []VerifyResult{{
		Status:        VerifySuccess,
		Amount:        500000,
		Currency:      "NGN",
		CustomerEmail: "ada@example.com",
	}}}
	receipts := &fakeReceipts{sent: make(chan Receipt, 1)}
	svc := newTestService(t, gw, Config{})
	svc.SetReceiptSender(receipts)

	_, err := svc.Verify(context.Background(), "SHOP-1-abc")
	require.NoError(t, err)
	svc.Wait()

	select {
	case r := <-receipts.sent:
		assert.Equal(t, "SHOP-1-abc", r.Reference)
		assert.Equal(t, "ada@example.com", r.Email)
		assert.Equal(t, int64(500000), r.Amount)
	default:
		t.Fatal("expected a receipt")
	}
}

func TestVerify_NoReceiptOnFailure(t *testing.T) {
	gw := &fakeGateway{verifyResult: []VerifyResult{{Status: VerifyFailed, CustomerEmail: "ada@example.com"}}}
	receipts := &fakeReceipts{sent: make(chan Receipt, 1)}
	svc := newTestService(t, gw, Config{})
	svc.SetReceiptSender(receipts)

	_, err := svc.Verify(context.Background(), "SHOP-1-abc")
	require.NoError(t, err)
	svc.Wait()

	assert.Empty(t, receipts.sent)
}

func TestToMinorUnit(t *testing.T) {
	assert.Equal(t, int64(500000), ToMinorUnit(5000))
	assert.Equal(t, int64(1999), ToMinorUnit(19.99))
	assert.Equal(t, int64(10), ToMinorUnit(0.1))
}
