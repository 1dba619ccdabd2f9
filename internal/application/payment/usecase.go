package payment

import (
	"context"
	"net/http"
	"time"

	"github.com/Zhima-Mochi/minishop-payment/internal/application"
	dompay "github.com/Zhima-Mochi/minishop-payment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-payment/internal/observability"
	"github.com/Zhima-Mochi/minishop-payment/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	paymentService     = "payment-service"
	useCaseCheckout    = "payment.checkout"
	checkoutSpanName   = "Checkout"
	queueOrderSpanName = "queue-order"
	spanPrefix         = "UC."

	peerUser    = "user"
	peerCart    = "cart"
	peerGateway = "gateway"
	peerBroker  = "broker"
)

var _ application.UseCase[CheckoutInput, *CheckoutResult] = (*CheckoutUseCase)(nil)

type CheckoutInput struct {
	UserID string
	Cart   dompay.Cart
}

type CheckoutResult struct {
	OrderID   string
	Anonymous bool
}

// Dependencies groups the collaborators of the checkout flow.
type Dependencies struct {
	Users     UserDirectory
	Carts     CartStore
	Gateway   Gateway
	Publisher OrderPublisher
	IDs       IDGenerator
}

type Option func(*CheckoutUseCase)

// WithPublishDelay injects an artificial latency before every publish. Zero disables it.
func WithPublishDelay(d time.Duration) Option {
	return func(uc *CheckoutUseCase) {
		if d > 0 {
			uc.publishDelay = d
		}
	}
}

// CheckoutUseCase drives one checkout end-to-end: validate, charge, publish the order,
// then update order history and clear the cart.
type CheckoutUseCase struct {
	users     UserDirectory
	carts     CartStore
	gateway   Gateway
	publisher OrderPublisher
	ids       IDGenerator

	publishDelay time.Duration

	tel observability.Observability
	log observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}

	soldCounter observability.Counter
	unitsSold   observability.Histogram
	cartValue   observability.Histogram
}

func NewCheckoutUseCase(deps Dependencies, tel observability.Observability, opts ...Option) *CheckoutUseCase {
	baseLog := observability.NopLogger()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		metricsProvider = tel.Metrics()
	}

	uc := &CheckoutUseCase{
		users:        deps.Users,
		carts:        deps.Carts,
		gateway:      deps.Gateway,
		publisher:    deps.Publisher,
		ids:          deps.IDs,
		tel:          tel,
		log:          baseLog.With(observability.F("service", paymentService)),
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
		extCounter:   metricsProvider.Counter(observability.MExternalRequests),
		extHistogram: metricsProvider.Histogram(observability.MExternalRequestDuration),
		soldCounter:  metricsProvider.Counter(observability.MItemsSold),
		unitsSold:    metricsProvider.Histogram(observability.MUnitsSold),
		cartValue:    metricsProvider.Histogram(observability.MCartValue),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Pay runs the checkout for userID and returns the new order id.
func (uc *CheckoutUseCase) Pay(ctx context.Context, userID string, cart dompay.Cart) (string, error) {
	res, err := uc.Execute(ctx, CheckoutInput{UserID: userID, Cart: cart})
	if err != nil {
		return "", err
	}
	return res.OrderID, nil
}

// Execute performs the checkout. Steps run strictly in sequence; the order is published
// before order history and cart cleanup, and a failure in those later steps does not
// retract the published order.
func (uc *CheckoutUseCase) Execute(ctx context.Context, cmd CheckoutInput) (_ *CheckoutResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseCheckout),
		observability.F("user_id", cmd.UserID),
	)

	ctx, span := uc.tracer().Start(ctx, spanPrefix+checkoutSpanName,
		attribute.String("use_case", useCaseCheckout),
		attribute.String("user.id", cmd.UserID),
		attribute.Float64("cart.total", cmd.Cart.Total),
		attribute.Int("cart.lines", len(cmd.Cart.Items)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	anonymous := true
	var orderID string

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			span.SetAttributes(attribute.Bool("user.anonymous", anonymous))
			if orderID != "" {
				span.SetAttributes(attribute.String("order.id", orderID))
			}
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseCheckout),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseCheckout),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
			observability.F("anonymous", anonymous),
		}
		if orderID != "" {
			fields = append(fields, observability.F("order_id", orderID))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
			logger.Warn("use_case_done", fields...)
			return
		}
		logger.Info("use_case_done", fields...)
	}()

	// Validation runs before any collaborator is contacted.
	if vErr := cmd.Cart.Validate(); vErr != nil {
		outcome, statusText = "rejected", "CART_INVALID"
		return nil, ErrCartInvalid
	}

	if uc.users != nil {
		status, callErr := uc.checkUser(ctx, cmd.UserID)
		if callErr != nil {
			outcome, statusText = "error", "USER_CHECK_FAILED"
			return nil, callErr
		}
		anonymous = status != http.StatusOK
		logger.Debug("user_checked", observability.F("status", status))
	}

	status, callErr := uc.charge(ctx, cmd.Cart)
	if callErr != nil {
		outcome, statusText = "error", "GATEWAY_UNREACHABLE"
		return nil, callErr
	}
	logger.Info("payment_gateway_returned", observability.F("status", status))
	if status != http.StatusOK {
		outcome, statusText = "rejected", "PAYMENT_DECLINED"
		return nil, &UpstreamStatusError{Peer: peerGateway, Reason: reasonPaymentError, StatusCode: status}
	}

	itemCount := cmd.Cart.ItemCount()
	uc.soldCounter.Add(float64(itemCount))
	uc.unitsSold.Observe(float64(itemCount))
	uc.cartValue.Observe(cmd.Cart.Total)

	orderID = uc.ids.NewID()
	order := dompay.NewOrder(orderID, cmd.UserID, cmd.Cart)

	if pubErr := uc.queueOrder(ctx, order); pubErr != nil {
		outcome, statusText = "error", "PUBLISH_FAILED"
		return nil, &BrokerError{Err: pubErr}
	}
	span.AddEvent("order.published", trace.WithAttributes(attribute.String("order.id", orderID)))

	if !anonymous {
		status, callErr = uc.addOrder(ctx, cmd.UserID, order.HistoryEntry())
		if callErr != nil {
			outcome, statusText = "error", "HISTORY_UPDATE_FAILED"
			return nil, callErr
		}
		logger.Info("order_history_returned", observability.F("status", status))
	}

	status, callErr = uc.deleteCart(ctx, cmd.UserID)
	if callErr != nil {
		outcome, statusText = "error", "CART_DELETE_FAILED"
		return nil, callErr
	}
	logger.Info("cart_delete_returned", observability.F("status", status))
	if status != http.StatusOK {
		outcome, statusText = "rejected", "CART_DELETE_REJECTED"
		return nil, &UpstreamStatusError{Peer: peerCart, Reason: reasonOrderHistoryUpdate, StatusCode: status}
	}

	return &CheckoutResult{OrderID: orderID, Anonymous: anonymous}, nil
}

func (uc *CheckoutUseCase) checkUser(ctx context.Context, userID string) (int, error) {
	start := time.Now()
	status, err := uc.users.CheckUser(ctx, userID)
	uc.observeExternal(peerUser, "check", start, status, err)
	if err != nil {
		return 0, &TransportError{Peer: peerUser, Err: err}
	}
	return status, nil
}

func (uc *CheckoutUseCase) charge(ctx context.Context, cart dompay.Cart) (int, error) {
	start := time.Now()
	status, err := uc.gateway.Charge(ctx, cart)
	uc.observeExternal(peerGateway, "charge", start, status, err)
	if err != nil {
		return 0, &TransportError{Peer: peerGateway, Err: err}
	}
	return status, nil
}

func (uc *CheckoutUseCase) addOrder(ctx context.Context, userID string, entry dompay.HistoryEntry) (int, error) {
	if uc.users == nil {
		return 0, nil
	}
	start := time.Now()
	status, err := uc.users.AddOrder(ctx, userID, entry)
	uc.observeExternal(peerUser, "order", start, status, err)
	if err != nil {
		return 0, &TransportError{Peer: peerUser, Err: err}
	}
	return status, nil
}

func (uc *CheckoutUseCase) deleteCart(ctx context.Context, userID string) (int, error) {
	start := time.Now()
	status, err := uc.carts.DeleteCart(ctx, userID)
	uc.observeExternal(peerCart, "delete", start, status, err)
	if err != nil {
		return 0, &TransportError{Peer: peerCart, Err: err}
	}
	return status, nil
}

// queueOrder publishes the order inside a producer span whose context travels with the
// message headers.
func (uc *CheckoutUseCase) queueOrder(ctx context.Context, order dompay.Order) (err error) {
	attrs := []attribute.KeyValue{
		attribute.String("component", "payment"),
		attribute.String("messaging.system", "rabbitmq"),
		attribute.String("messaging.operation", "publish"),
		attribute.String("order.id", order.OrderID),
	}
	if dest, ok := uc.publisher.(MessageDestination); ok {
		attrs = append(attrs,
			attribute.String("messaging.destination.name", dest.Exchange()),
			attribute.String("messaging.rabbitmq.destination.routing_key", dest.RoutingKey()),
			attribute.String("message_bus.destination", dest.RoutingKey()),
		)
	}

	tracer := uc.tracer()
	ctx, span := tracer.StartProducer(ctx, queueOrderSpanName, attrs...)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "publish failed")
		}
		span.End()
	}()

	if err = uc.delay(ctx); err != nil {
		return err
	}

	headers := tracer.Inject(ctx)
	logctx.FromOr(ctx, uc.log).Debug("queue_order",
		observability.F("order_id", order.OrderID),
		observability.F("headers", len(headers)),
	)

	start := time.Now()
	err = uc.publisher.Publish(ctx, order, headers)
	uc.observeExternal(peerBroker, "publish", start, http.StatusOK, err)
	return err
}

func (uc *CheckoutUseCase) delay(ctx context.Context) error {
	if uc.publishDelay <= 0 {
		return nil
	}
	t := time.NewTimer(uc.publishDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (uc *CheckoutUseCase) observeExternal(peer, endpoint string, start time.Time, status int, err error) {
	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case status != http.StatusOK:
		outcome = "failure"
	}
	uc.extCounter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
	)
}

func (uc *CheckoutUseCase) tracer() observability.Tracer {
	if uc.tel == nil {
		return observability.NopTracer()
	}
	return uc.tel.Tracer()
}
