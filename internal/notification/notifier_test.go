package notification

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/config"
	"github.com/property-report-ledger/internal/domain/account"
	"github.com/property-report-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAccountLookup struct {
	mock.Mock
}

func (m *MockAccountLookup) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, email *Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testNotificationConfig = &config.NotificationConfig{
	Enabled:     true,
	FromAddress: "reports@example.com",
	AppBaseURL:  "https://app.example.com/",
	Timeout:     time.Second,
}

func TestNotifier_Notify(t *testing.T) {
	ctx := context.Background()
	acc := &account.Account{ID: uuid.New(), Email: "owner@example.com", Name: "Alex"}

	t.Run("Completed", func(t *testing.T) {
		accounts := new(MockAccountLookup)
		sender := new(MockEmailSender)
		outcome := &shared.ReportOutcome{
			ReportID:        uuid.New(),
			AccountID:       acc.ID,
			Outcome:         shared.OutcomeCompleted,
			PropertyAddress: "9 Dock Road, Hull",
		}

		accounts.On("GetByID", ctx, acc.ID).Return(acc, nil).Once()
		sender.On("Send", ctx, mock.MatchedBy(func(e *Email) bool {
			return e.Subject == SubjectCompleted &&
				e.From == "reports@example.com" &&
				assert.Equal(t, []string{"owner@example.com"}, e.To) &&
				assert.Contains(t, e.HTML, "https://app.example.com/dashboard/reports/"+outcome.ReportID.String()) &&
				assert.Contains(t, e.Text, "9 Dock Road, Hull")
		})).Return(nil).Once()

		err := NewNotifier(newDiscardLogger(), accounts, sender, testNotificationConfig).Notify(ctx, outcome)

		require.NoError(t, err)
		sender.AssertExpectations(t)
	})

	t.Run("FailedMentionsRefund", func(t *testing.T) {
		accounts := new(MockAccountLookup)
		sender := new(MockEmailSender)
		outcome := &shared.ReportOutcome{
			ReportID:      uuid.New(),
			AccountID:     acc.ID,
			Outcome:       shared.OutcomeFailed,
			FailureReason: "generation timed out",
		}

		accounts.On("GetByID", ctx, acc.ID).Return(acc, nil).Once()
		sender.On("Send", ctx, mock.MatchedBy(func(e *Email) bool {
			return e.Subject == SubjectFailed &&
				assert.Contains(t, e.HTML, "automatically refunded") &&
				assert.Contains(t, e.HTML, "generation timed out") &&
				assert.Contains(t, e.Text, "your property")
		})).Return(nil).Once()

		err := NewNotifier(newDiscardLogger(), accounts, sender, testNotificationConfig).Notify(ctx, outcome)

		require.NoError(t, err)
		sender.AssertExpectations(t)
	})

	t.Run("InvalidOutcome", func(t *testing.T) {
		accounts := new(MockAccountLookup)
		sender := new(MockEmailSender)

		err := NewNotifier(newDiscardLogger(), accounts, sender, testNotificationConfig).Notify(ctx, &shared.ReportOutcome{})

		assert.Error(t, err)
		accounts.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		accounts := new(MockAccountLookup)
		sender := new(MockEmailSender)
		id := uuid.New()
		accounts.On("GetByID", ctx, id).Return(nil, account.ErrAccountNotFound{AccountID: id}).Once()

		err := NewNotifier(newDiscardLogger(), accounts, sender, testNotificationConfig).Notify(ctx, &shared.ReportOutcome{
			ReportID: uuid.New(), AccountID: id, Outcome: shared.OutcomeCompleted,
		})

		assert.ErrorIs(t, err, account.ErrAccountNotFound{AccountID: id})
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestHTTPEmailClient_Send(t *testing.T) {
	t.Run("PostsMessage", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
			var email Email
			require.NoError(t, json.NewDecoder(r.Body).Decode(&email))
			assert.Equal(t, SubjectCompleted, email.Subject)
			_, _ = w.Write([]byte(`{"id":"email_1"}`))
		}))
		defer server.Close()

		client := NewHTTPEmailClient(newDiscardLogger(), &config.NotificationConfig{
			EmailAPIURL: server.URL,
			EmailAPIKey: "re_test",
			Timeout:     time.Second,
		})

		err := client.Send(context.Background(), &Email{To: []string{"a@example.com"}, Subject: SubjectCompleted})
		require.NoError(t, err)
	})

	t.Run("ErrorStatus", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"invalid from"}`))
		}))
		defer server.Close()

		client := NewHTTPEmailClient(newDiscardLogger(), &config.NotificationConfig{EmailAPIURL: server.URL, Timeout: time.Second})

		err := client.Send(context.Background(), &Email{To: []string{"a@example.com"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "422")
	})
}

func TestNewEmailSender(t *testing.T) {
	sender := NewEmailSender(newDiscardLogger(), &config.NotificationConfig{Enabled: false})
	assert.IsType(t, &LogSender{}, sender)
	assert.NoError(t, sender.Send(context.Background(), &Email{Subject: "x"}))

	sender = NewEmailSender(newDiscardLogger(), testNotificationConfig)
	assert.IsType(t, &HTTPEmailClient{}, sender)

}
