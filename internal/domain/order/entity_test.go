package order

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_TransitionTable(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPending: {StatusPaid, StatusCancelled},
		StatusPaid:    {StatusShipped, StatusCancelled},
		StatusShipped: {StatusCompleted},
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, Status(99).IsTerminal())
	assert.False(t, Status(99).CanTransitionTo(StatusPaid))
}

func TestStatus_NextStatusesReturnsCopy(t *testing.T) {
	next := StatusPending.NextStatuses()
	require.Len(t, next, 2)
	next[0] = StatusCompleted

	assert.Equal(t, []Status{StatusPaid, StatusCancelled}, StatusPending.NextStatuses())
	assert.Empty(t, StatusCompleted.NextStatuses())
}

func TestStatus_TextEncoding(t *testing.T) {
	s, err := ParseStatus(" paid ")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, s)

	_, err = ParseStatus("REFUNDED")
	assert.Error(t, err)

	raw, err := json.Marshal(map[string]Status{"status": StatusShipped})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"SHIPPED"}`, string(raw))

	var decoded struct {
		Status Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"CANCELLED"}`), &decoded))
	assert.Equal(t, StatusCancelled, decoded.Status)

	assert.Equal(t, "UNKNOWN(42)", Status(42).String())
}

func TestOrder_Validate(t *testing.T) {
	valid := NewOrder("ORD1", 1, "SKU-1", 2, Payload{TotalAmount: 100, PaymentAmount: 90})
	require.NoError(t, valid.Validate())
	assert.Equal(t, StatusPending, valid.Status)
	assert.True(t, valid.IsOwnedBy(1))
	assert.False(t, valid.IsOwnedBy(2))

	cases := []struct {
		name   string
		mutate func(*Order)
		want   error
	}{
		{"缺少订单号", func(o *Order) { o.OrderNo = "" }, ErrInvalidOrder},
		{"缺少用户", func(o *Order) { o.UserID = 0 }, ErrInvalidOrder},
		{"缺少商品", func(o *Order) { o.ProductID = "" }, ErrInvalidOrder},
		{"数量为0", func(o *Order) { o.Quantity = 0 }, ErrInvalidQuantity},
		{"负金额", func(o *Order) { o.TotalAmount = -1 }, ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := *valid
			tc.mutate(&o)
			assert.ErrorIs(t, o.Validate(), tc.want)
		})
	}
}

func TestOrder_ApplyKeepsExistingFields(t *testing.T) {
	o := NewOrder("ORD1", 1, "SKU-1", 1, Payload{})
	at := time.Now().Add(time.Minute)

	o.apply(StatusShipped, Change{TrackingNumber: "SF1"}, at)
	o.apply(StatusCompleted, Change{}, at)

	assert.Equal(t, StatusCompleted, o.Status)
	assert.Equal(t, "SF1", o.TrackingNumber)
	assert.Equal(t, at, o.UpdatedAt)
}
