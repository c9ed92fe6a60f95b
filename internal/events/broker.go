package events

import (
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Broker pairs the publisher and subscriber of one transport.
type Broker struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// NewKafkaBroker connects to Kafka. Published messages wait for all in-sync
// replicas; a new consumer group starts from the oldest offset.
func NewKafkaBroker(brokers []string, consumerGroup string, logger watermill.LoggerAdapter) (*Broker, error) {
	pubConfig := kafka.DefaultSaramaSyncPublisherConfig()
	pubConfig.Producer.RequiredAcks = sarama.WaitForAll

	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:               brokers,
		Marshaler:             kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: pubConfig,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}

	subConfig := kafka.DefaultSaramaSubscriberConfig()
	subConfig.Consumer.Offsets.Initial = sarama.OffsetOldest

	sub, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               brokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: subConfig,
		ConsumerGroup:         consumerGroup,
	}, logger)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("kafka subscriber: %w", err), pub.Close())
	}
	return &Broker{Publisher: pub, Subscriber: sub}, nil
}

// NewInMemoryBroker returns an in-process broker. Messages published while
// nobody is subscribed are dropped.
func NewInMemoryBroker(logger watermill.LoggerAdapter) *Broker {
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
	return &Broker{Publisher: ch, Subscriber: ch}
}

func (b *Broker) Close() error {
	return errors.Join(b.Publisher.Close(), b.Subscriber.Close())
}
