package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/resilience"
)

const (
	// SubjectRebuildRequested carries rebuild jobs to the worker pool.
	SubjectRebuildRequested = "corpus.rebuild.requested"
	// SubjectRebuilt announces completed rebuilds to serving processes.
	SubjectRebuilt = "corpus.rebuilt"

	// rebuildWorkersGroup makes workers compete for jobs so each rebuild
	// runs exactly once. Rebuilt events deliberately use no group; every
	// serving replica must swap its index snapshot.
	rebuildWorkersGroup = "rebuild-workers"
)

type Queue struct {
	conn     *nats.Conn
	executor *resilience.Executor
}

func New(url string) (*Queue, error) {
	return NewWithOptions(url, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func NewWithOptions(url string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("burkina-culture-assistant"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats reconnected: %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		executor: options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishRebuildRequested(ctx context.Context, job domain.RebuildJob) error {
	return q.publish(ctx, SubjectRebuildRequested, "nats.publish_rebuild_requested", job)
}

func (q *Queue) PublishRebuilt(ctx context.Context, result domain.RebuildResult) error {
	return q.publish(ctx, SubjectRebuilt, "nats.publish_rebuilt", result)
}

// SubscribeRebuildRequested consumes jobs in the worker group and blocks
// until ctx is done, then drains.
func (q *Queue) SubscribeRebuildRequested(ctx context.Context, handler func(context.Context, domain.RebuildJob) error) error {
	return q.consume(ctx, SubjectRebuildRequested, rebuildWorkersGroup, func(handlerCtx context.Context, data []byte) error {
		var job domain.RebuildJob
		if err := json.Unmarshal(data, &job); err != nil {
			return fmt.Errorf("decode rebuild job: %w", err)
		}
		return handler(handlerCtx, job)
	})
}

// SubscribeRebuilt fans completed-rebuild events out to every subscriber
// and blocks until ctx is done, then drains.
func (q *Queue) SubscribeRebuilt(ctx context.Context, handler func(context.Context, domain.RebuildResult) error) error {
	return q.consume(ctx, SubjectRebuilt, "", func(handlerCtx context.Context, data []byte) error {
		var result domain.RebuildResult
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("decode rebuilt event: %w", err)
		}
		return handler(handlerCtx, result)
	})
}

func (q *Queue) publish(ctx context.Context, subject, operation string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", subject, err)
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(subject, data); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	var callErr error
	if q.executor != nil {
		callErr = q.executor.Execute(ctx, operation, call, classifyNATSError)
	} else {
		callErr = call(ctx)
	}
	if callErr != nil {
		return wrapTemporaryIfNeeded(callErr)
	}
	return nil
}

func (q *Queue) consume(ctx context.Context, subject, group string, handle func(context.Context, []byte) error) error {
	callback := func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handle(handlerCtx, msg.Data); err != nil {
			log.Printf("%s handler error: %v", subject, err)
		}
	}

	var (
		sub *nats.Subscription
		err error
	)
	if group == "" {
		sub, err = q.conn.Subscribe(subject, callback)
	} else {
		sub, err = q.conn.QueueSubscribe(subject, group, callback)
	}
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
