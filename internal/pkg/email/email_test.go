package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/hms_go_server/internal/pkg/queue"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name        string
		job         *queue.EmailJob
		wantSubject string
		wantBody    string
	}{
		{
			name: "checkout reminder",
			job: &queue.EmailJob{
				Template: queue.TemplateCheckoutReminder,
				Data: map[string]string{
					"hotel_name": "Acme Hotel", "guest_name": "Ada", "reference": "ACME-2025-000001",
					"room": "101", "hours_left": "3", "check_out": "2025-06-03 12:00",
				},
			},
			wantSubject: "Checkout reminder - Acme Hotel",
			wantBody:    "ends in about 3 hour(s)",
		},
		{
			name: "expiration warning",
			job: &queue.EmailJob{
				Template: queue.TemplateExpirationWarning,
				Data:     map[string]string{"days_left": "7", "plan": "Pro", "end_date": "2025-06-30"},
			},
			wantSubject: "Your subscription expires in 7 day(s)",
			wantBody:    "ends on 2025-06-30",
		},
		{
			name: "renewal succeeded",
			job: &queue.EmailJob{
				Template: queue.TemplateRenewalSucceeded,
				Data:     map[string]string{"plan": "Pro", "amount": "49.00", "currency": "NGN", "end_date": "2025-07-30"},
			},
			wantSubject: "Subscription renewed",
			wantBody:    "49.00 NGN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Render(tt.job)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubject, r.Subject)
			assert.Contains(t, r.PlainBody, tt.wantBody)
			assert.Contains(t, r.HTMLBody, tt.wantBody)
		})
	}
}

func TestRender_EscapesHTML(t *testing.T) {
	r, err := Render(&queue.EmailJob{
		Template: queue.TemplateAutoCheckout,
		Data:     map[string]string{"guest_name": "<script>"},
	})
	require.NoError(t, err)
	assert.NotContains(t, r.HTMLBody, "<script>")
	assert.Contains(t, r.PlainBody, "<script>")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := Render(&queue.EmailJob{Template: "nope"})
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}
