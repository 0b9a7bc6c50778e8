package service

import (
	"context"
	"encoding/json"
	stdHTTP "net/http"
	"time"

	"otabridge/config"
	"otabridge/db"
	"otabridge/http"
	"otabridge/message"
	"otabridge/ota"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	cfg        config.App
	echoRouter *echo.Echo
	dispatcher *ota.Dispatcher
}

// New wires the dispatcher against the connection pool and, when a Redis
// client is supplied, the event bus. redisClient may be nil.
func New(cfg config.App, pool *pgxpool.Pool, redisClient *redis.Client) *Service {
	var publisher ota.EventPublisher
	if redisClient != nil {
		watermillLogger := message.NewWatermillLogger(logrus.StandardLogger())
		pub, err := message.NewPublisher(redisClient, watermillLogger)
		if err != nil {
			panic(err)
		}
		publisher = message.NewEventBus(pub)
	}

	begin := func(ctx context.Context) (ota.Tx, error) {
		return db.Begin(ctx, pool)
	}

	dispatcher := ota.NewDispatcher(cfg.SharedSecret, begin, publisher)

	return &Service{
		cfg:        cfg,
		echoRouter: http.NewHttpRouter(dispatcher),
		dispatcher: dispatcher,
	}
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.echoRouter.Start(s.cfg.HTTPAddr)
		if err != nil && err != stdHTTP.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.echoRouter.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// LambdaHandler adapts the dispatcher to API Gateway proxy invocations. The
// event may be the parameter mapping itself or carry it JSON-encoded under
// "body"; either way the response is a 200 with a JSON body.
func (s *Service) LambdaHandler() func(ctx context.Context, event json.RawMessage) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, event json.RawMessage) (events.APIGatewayProxyResponse, error) {
		var payload map[string]any

		params, err := ota.DecodeParams(event)
		if err != nil {
			logrus.WithError(err).Error("could not decode lambda event")
			payload = ota.MalformedPayload()
		} else {
			payload = s.dispatcher.Dispatch(ctx, params)
		}

		body, err := json.Marshal(payload)
		if err != nil {
			return events.APIGatewayProxyResponse{}, err
		}

		return events.APIGatewayProxyResponse{
			StatusCode: stdHTTP.StatusOK,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       string(body),
		}, nil
	}
}
