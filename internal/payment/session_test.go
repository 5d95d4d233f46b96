package payment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/joshu-sajeev/upiqr/common"
	"github.com/joshu-sajeev/upiqr/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedGenerator blocks each Generate call until its release channel is
// closed, so tests control completion order.
type gatedGenerator struct {
	mu      sync.Mutex
	calls   []dto.FormFields
	gates   map[string]chan struct{}
	started chan string
}

func newGatedGenerator() *gatedGenerator {
	return &gatedGenerator{gates: map[string]chan struct{}{}, started: make(chan string, 8)}
}

func (g *gatedGenerator) gate(payee string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[payee]
	if !ok {
		ch = make(chan struct{})
		g.gates[payee] = ch
	}
	return ch
}

func (g *gatedGenerator) Generate(ctx context.Context, f dto.FormFields) (*GenerateResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, f)
	g.mu.Unlock()

	gate := g.gate(f.PayeeID)
	g.started <- f.PayeeID
	<-gate
	return &GenerateResult{Link: dto.PaymentLink{URI: "upi://pay?pa=" + f.PayeeID, Fields: f}}, nil
}

type funcGenerator func(ctx context.Context, f dto.FormFields) (*GenerateResult, error)

func (fn funcGenerator) Generate(ctx context.Context, f dto.FormFields) (*GenerateResult, error) {
	return fn(ctx, f)
}

func waitStarted(t *testing.T, g *gatedGenerator) string {
	t.Helper()
	select {
	case id := <-g.started:
		return id
	case <-time.After(time.Second):
		t.Fatal("generate did not start")
		return ""
	}
}

func TestSession_Update(t *testing.T) {
	s := NewSession(newGatedGenerator())

	require.NoError(t, s.Update(dto.FieldPayeeID, "alice@bank"))
	require.NoError(t, s.Update(dto.FieldAmount, "500"))
	assert.Error(t, s.Update("email", "x"))

	assert.Equal(t, dto.FormFields{PayeeID: "alice@bank", Amount: "500"}, s.Form())
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSession_GenerateSnapshotsTrimmedForm(t *testing.T) {
	var got dto.FormFields
	s := NewSession(funcGenerator(func(ctx context.Context, f dto.FormFields) (*GenerateResult, error) {
		got = f
		return &GenerateResult{Link: dto.PaymentLink{Fields: f}}, nil
	}))
	s.SetForm(dto.FormFields{PayeeID: " alice@bank ", PayeeName: "Alice "})

	res, err := s.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dto.FormFields{PayeeID: "alice@bank", PayeeName: "Alice"}, got)

	current, ok := s.Current()
	require.True(t, ok)
	assert.Same(t, res, current)
}

func TestSession_RejectsDuplicateInFlight(t *testing.T) {
	g := newGatedGenerator()
	s := NewSession(g)
	s.SetForm(dto.FormFields{PayeeID: "alice@bank"})

	done := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background())
		done <- err
	}()
	waitStarted(t, g)

	assert.True(t, s.Busy())
	_, err := s.Generate(context.Background())
	assert.ErrorIs(t, err, ErrGenerateInFlight)

	// Whitespace-only edits produce the same snapshot.
	s.SetForm(dto.FormFields{PayeeID: " alice@bank"})
	_, err = s.Generate(context.Background())
	assert.ErrorIs(t, err, ErrGenerateInFlight)

	close(g.gate("alice@bank"))
	require.NoError(t, <-done)
	assert.False(t, s.Busy())

	g.mu.Lock()
	assert.Len(t, g.calls, 1)
	g.mu.Unlock()
}

func TestSession_LastWriteWins(t *testing.T) {
	g := newGatedGenerator()
	s := NewSession(g)

	s.SetForm(dto.FormFields{PayeeID: "first@bank"})
	first := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background())
		first <- err
	}()
	require.Equal(t, "first@bank", waitStarted(t, g))

	s.SetForm(dto.FormFields{PayeeID: "second@bank"})
	assert.False(t, s.Busy())
	second := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background())
		second <- err
	}()
	require.Equal(t, "second@bank", waitStarted(t, g))

	// The later generate finishes first; the stale one must not replace it.
	close(g.gate("second@bank"))
	require.NoError(t, <-second)
	close(g.gate("first@bank"))
	require.NoError(t, <-first)

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "second@bank", current.Link.Fields.PayeeID)
}

func TestSession_ValidationErrors(t *testing.T) {
	fail := true
	s := NewSession(funcGenerator(func(ctx context.Context, f dto.FormFields) (*GenerateResult, error) {
		if fail {
			return nil, common.ValidationFailed(map[string]any{dto.FieldPayeeID: "Invalid UPI ID"})
		}
		return &GenerateResult{Link: dto.PaymentLink{Fields: f}}, nil
	}))
	s.SetForm(dto.FormFields{PayeeID: "alice"})

	_, err := s.Generate(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Invalid UPI ID", s.Errors().Get(dto.FieldPayeeID))
	_, ok := s.Current()
	assert.False(t, ok)

	// Errors returns a copy.
	s.Errors()[dto.FieldAmount] = "x"
	assert.Empty(t, s.Errors().Get(dto.FieldAmount))

	fail = false
	require.NoError(t, s.Update(dto.FieldPayeeID, "alice@bank"))
	_, err = s.Generate(context.Background())
	require.NoError(t, err)
	assert.False(t, s.Errors().HasErrors())
}

func TestSession_LastWriteWins_NewerFailure(t *testing.T) {
	g := newGatedGenerator()
	s := NewSession(funcGenerator(func(ctx context.Context, f dto.FormFields) (*GenerateResult, error) {
		if f.Amount == "0" {
			return nil, common.ValidationFailed(map[string]any{dto.FieldAmount: "Enter a valid positive amount"})
		}
		return g.Generate(ctx, f)
	}))

	s.SetForm(dto.FormFields{PayeeID: "alice@bank", Amount: "500"})
	older := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background())
		older <- err
	}()
	require.Equal(t, "alice@bank", waitStarted(t, g))

	require.NoError(t, s.Update(dto.FieldAmount, "0"))
	_, err := s.Generate(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Enter a valid positive amount", s.Errors().Get(dto.FieldAmount))

	// The older render finishing afterwards must not clear the newer
	// errors or put its QR code on display.
	close(g.gate("alice@bank"))
	require.NoError(t, <-older)

	assert.Equal(t, "Enter a valid positive amount", s.Errors().Get(dto.FieldAmount))
	_, ok := s.Current()
	assert.False(t, ok)
}
