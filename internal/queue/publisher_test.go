package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/engine"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

func record() engine.TxRecord {
	return engine.TxRecord{
		TxID:     "tx-1",
		Height:   3,
		Time:     time.Unix(500, 0).UTC(),
		Sender:   "alice",
		Contract: "hub",
		Action:   "bond",
		Events:   []chain.Event{chain.NewEvent("wasm").Add("action", "hub/bond")},
	}
}

func TestPublishSendsPersistentJSON(t *testing.T) {
	ch := new(mockChannel)
	var sent amqp.Publishing
	ch.On("PublishWithContext", mock.Anything, "", "txs", false, false, mock.AnythingOfType("amqp091.Publishing")).
		Run(func(args mock.Arguments) { sent = args.Get(5).(amqp.Publishing) }).
		Return(nil).Once()

	require.NoError(t, NewPublisher(ch, "txs").Publish(context.Background(), record()))
	ch.AssertExpectations(t)

	assert.Equal(t, "application/json", sent.ContentType)
	assert.Equal(t, amqp.Persistent, sent.DeliveryMode)
	assert.Equal(t, "tx-1", sent.MessageId)
	assert.Equal(t, "bond", sent.Type)

	var decoded engine.TxRecord
	require.NoError(t, json.Unmarshal(sent.Body, &decoded))
	assert.Equal(t, record(), decoded)
}

func TestPublishWrapsBrokerErrors(t *testing.T) {
	brokerDown := errors.New("channel closed")
	ch := new(mockChannel)
	ch.On("PublishWithContext", mock.Anything, "", "txs", false, false, mock.Anything).Return(brokerDown)

	err := NewPublisher(ch, "txs").Publish(context.Background(), record())
	require.ErrorIs(t, err, brokerDown)
	assert.Contains(t, err.Error(), "tx-1")
}

func TestCloseClosesChannel(t *testing.T) {
	ch := new(mockChannel)
	ch.On("Close").Return(nil).Once()
	require.NoError(t, NewPublisher(ch, "txs").Close())
	ch.AssertExpectations(t)
}
