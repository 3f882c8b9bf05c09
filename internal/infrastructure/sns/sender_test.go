package sns

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	return &sns.PublishOutput{}, args.Error(0)
}

func TestSendSMS_Transactional(t *testing.T) {
	p := &mockPublisher{}
	p.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		attr, ok := in.MessageAttributes["AWS.SNS.SMS.SMSType"]
		return *in.PhoneNumber == "+15551234567" && *in.Message == "code 123456" &&
			ok && *attr.StringValue == "Transactional"
	})).Return(nil)

	s := &sender{client: p}
	assert.NoError(t, s.SendSMS(context.Background(), "+15551234567", "code 123456"))
	p.AssertExpectations(t)
}

func TestSendSMS_Error(t *testing.T) {
	p := &mockPublisher{}
	p.On("Publish", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	s := &sender{client: p}
	assert.Error(t, s.SendSMS(context.Background(), "+15551234567", "x"))
}
