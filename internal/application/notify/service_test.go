package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-api-otp/internal/infrastructure/smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, msg smtp.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type mockSMS struct{ mock.Mock }

func (m *mockSMS) SendSMS(ctx context.Context, to, message string) error {
	return m.Called(ctx, to, message).Error(0)
}

func TestSendCode_Email(t *testing.T) {
	ml := &mockMailer{}
	ml.On("Send", mock.Anything, mock.MatchedBy(func(msg smtp.Message) bool {
		return len(msg.To) == 1 && msg.To[0] == "a@b.com" &&
			msg.Subject == "Your pthinkS verification code" &&
			strings.Contains(msg.TextBody, "123456") &&
			strings.Contains(msg.TextBody, "5 minutes") &&
			strings.Contains(msg.HTMLBody, "123456")
	})).Return(nil)
	sms := &mockSMS{}

	d := NewDispatcher(DispatcherDeps{Mailer: ml, SMS: sms, CompanyName: "pthinkS", TTL: 5 * time.Minute})
	assert.NoError(t, d.SendCode(context.Background(), "a@b.com", "123456"))
	ml.AssertExpectations(t)
	sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendCode_HTMLEscapesCompany(t *testing.T) {
	ml := &mockMailer{}
	ml.On("Send", mock.Anything, mock.MatchedBy(func(msg smtp.Message) bool {
		return strings.Contains(msg.HTMLBody, "A&amp;B") && !strings.Contains(msg.HTMLBody, "<script>")
	})).Return(nil)

	d := NewDispatcher(DispatcherDeps{Mailer: ml, CompanyName: "A&B<script>", TTL: time.Minute})
	assert.NoError(t, d.SendCode(context.Background(), "a@b.com", "123456"))
	ml.AssertExpectations(t)
}

func TestSendCode_Phone(t *testing.T) {
	ml := &mockMailer{}
	sms := &mockSMS{}
	sms.On("SendSMS", mock.Anything, "+15551234567", "pthinkS: your verification code is 654321. It expires in 2 min.").Return(nil)

	d := NewDispatcher(DispatcherDeps{Mailer: ml, SMS: sms, CompanyName: "pthinkS", TTL: 90 * time.Second})
	assert.NoError(t, d.SendCode(context.Background(), "+15551234567", "654321"))
	sms.AssertExpectations(t)
	ml.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendCode_PhoneWithoutSMS(t *testing.T) {
	d := NewDispatcher(DispatcherDeps{Mailer: &mockMailer{}})
	assert.ErrorIs(t, d.SendCode(context.Background(), "+15551234567", "654321"), ErrSMSDisabled)
}

func TestSendCode_MailerError(t *testing.T) {
	ml := &mockMailer{}
	ml.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	d := NewDispatcher(DispatcherDeps{Mailer: ml})
	assert.ErrorContains(t, d.SendCode(context.Background(), "a@b.com", "123456"), "smtp down")
}

func TestMinutes(t *testing.T) {
	assert.Equal(t, 5, minutes(5*time.Minute))
	assert.Equal(t, 1, minutes(30*time.Second))
	assert.Equal(t, 1, minutes(0))
}
