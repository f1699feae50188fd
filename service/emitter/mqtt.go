package emitter

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/service/config"
	"github.com/khaledhikmat/alpr-go/service/lgr"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

var ErrNotConnected = xerrors.New("mqtt emitter: not connected")

type mqttService struct {
	params config.EmitterParameters
	source string
	client mqtt.Client

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64
}

// NewMQTT connects to the configured broker and publishes recognized plates to the
// configured topic. The client reconnects on its own after a lost connection.
func NewMQTT(cfgSvc config.IService) (IService, error) {
	params := cfgSvc.GetEmitterParameters()
	if params.Broker == "" {
		return nil, xerrors.New("mqtt emitter: no broker configured")
	}
	if params.ClientID == "" {
		params.ClientID = "alpr-" + uuid.NewString()
	}

	svc := &mqttService{
		params: params,
		source: cfgSvc.GetSource().Name,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(params.Broker))
	opts.SetClientID(params.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(_ mqtt.Client) {
		svc.setConnected(true)
		lgr.Logger.Info(
			"mqtt connection established",
			slog.String("broker", params.Broker),
			slog.String("clientID", params.ClientID),
		)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		svc.setConnected(false)
		lgr.Logger.Warn(
			"mqtt connection lost, will auto-reconnect",
			slog.String("broker", params.Broker),
			slog.Any("error", err),
		)
	}

	svc.client = mqtt.NewClient(opts)

	token := svc.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, xerrors.Errorf("mqtt emitter: connecting to %s timed out", params.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, xerrors.Errorf("mqtt emitter: connecting to %s: %w", params.Broker, err)
	}

	svc.setConnected(true)
	return svc, nil
}

func (svc *mqttService) Emit(snapshot model.Snapshot) error {
	if !svc.isConnected() {
		svc.countError()
		return ErrNotConnected
	}

	payload, err := NewPayload(svc.source, snapshot).ToJSON()
	if err != nil {
		svc.countError()
		return xerrors.Errorf("mqtt emitter: encoding payload: %w", err)
	}

	token := svc.client.Publish(svc.params.Topic, svc.params.QoS, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		svc.countError()
		return xerrors.New("mqtt emitter: publish timeout")
	}
	if err := token.Error(); err != nil {
		svc.countError()
		return xerrors.Errorf("mqtt emitter: publish: %w", err)
	}

	svc.mu.Lock()
	svc.published++
	svc.mu.Unlock()

	lgr.Logger.Debug(
		"plate published",
		slog.String("topic", svc.params.Topic),
		slog.String("plate", snapshot.Text),
		slog.Int("size", len(payload)),
	)
	return nil
}

func (svc *mqttService) Close() error {
	if svc.client != nil && svc.client.IsConnected() {
		svc.client.Disconnect(250)
	}
	svc.setConnected(false)

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	lgr.Logger.Info(
		"mqtt emitter closed",
		slog.Uint64("published", svc.published),
		slog.Uint64("errors", svc.errors),
	)
	return nil
}

func (svc *mqttService) setConnected(connected bool) {
	svc.mu.Lock()
	svc.connected = connected
	svc.mu.Unlock()
}

func (svc *mqttService) isConnected() bool {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.connected
}

func (svc *mqttService) countError() {
	svc.mu.Lock()
	svc.errors++
	svc.mu.Unlock()
}

// brokerURL accepts either a full URL or host:port.
func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}
