package orders

import (
	"context"
	"fmt"
	"time"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/id"
	"orderledger/internal/core/lock"
	"orderledger/internal/core/tx"
	"orderledger/internal/core/types"
	"orderledger/internal/domain"
	"orderledger/internal/domain/inventory"
	"orderledger/internal/domain/parties"
	"orderledger/pkg/logger"
)

// PartyLedger is the part of the party service the order ledger writes through.
type PartyLedger interface {
	Kind() parties.Kind
	GetByID(ctx context.Context, id id.ID) (*parties.Party, error)
	LockForUpdate(ctx context.Context, id id.ID) (*parties.Party, error)
	Adjust(ctx context.Context, partyID id.ID, delta parties.Balance, orderID id.ID, cause string) (parties.Balance, error)
	OverwriteTotals(ctx context.Context, partyID id.ID, before, after parties.Balance) error
	ListIDs(ctx context.Context) ([]id.ID, error)
}

// ItemCatalog resolves inventory items for new order lines.
type ItemCatalog interface {
	GetOrderable(ctx context.Context, id id.ID) (*inventory.Item, error)
}

// Service is the write path of the order ledger for one kind of order.
//
// Every mutation of an order, its lines, deliveries or payments runs in one
// transaction: lock the order row, apply the change, recompute the order
// (Delivery -> Item -> Order) and push the change of the order's contribution
// to its party (Order -> Party).
type Service struct {
	kind      Kind
	repo      Repository
	parties   PartyLedger
	catalog   ItemCatalog
	txManager tx.Manager
	codes     *CodeAssigner
	locker    lock.Locker
	deriver   Deriver
}

// Config configures the order service.
type Config struct {
	Kind      Kind
	Repo      Repository
	Parties   PartyLedger
	Catalog   ItemCatalog
	TxManager tx.Manager
	Sequencer Sequencer
	Locker    lock.Locker
	Deriver   Deriver
}

// NewService creates an order service.
func NewService(cfg Config) (*Service, error) {
	if !cfg.Kind.Valid() {
		return nil, fmt.Errorf("invalid order kind %q", cfg.Kind)
	}
	if cfg.Parties != nil && cfg.Parties.Kind() != cfg.Kind.PartyKind() {
		return nil, fmt.Errorf("%s orders need %s parties, got %s", cfg.Kind, cfg.Kind.PartyKind(), cfg.Parties.Kind())
	}
	txm := cfg.TxManager
	if txm == nil {
		txm = tx.Passthrough{}
	}
	locker := cfg.Locker
	if locker == nil {
		locker = lock.Nop{}
	}
	return &Service{
		kind:      cfg.Kind,
		repo:      cfg.Repo,
		parties:   cfg.Parties,
		catalog:   cfg.Catalog,
		txManager: txm,
		codes:     NewCodeAssigner(cfg.Sequencer),
		locker:    locker,
		deriver:   cfg.Deriver,
	}, nil
}

// Kind returns the kind of order this service manages.
func (s *Service) Kind() Kind {
	return s.kind
}

func (s *Service) now() time.Time {
	return s.deriver.now()
}

func (s *Service) entityName() string {
	return string(s.kind) + " order"
}

// --- Inputs ---

// ItemInput describes a new order line. UnitPrice defaults to the inventory price.
type ItemInput struct {
	InventoryID     id.ID
	QuantityOrdered int64
	UnitPrice       *types.Money
}

// CreateInput describes a new order.
type CreateInput struct {
	PartyID   id.ID
	OrderDate time.Time
	Currency  string
	Items     []ItemInput
}

// UpdateInput changes order header fields. Version must match the stored version.
type UpdateInput struct {
	Version   int
	OrderDate *time.Time
	Currency  *string
}

// ItemUpdate changes an order line.
type ItemUpdate struct {
	QuantityOrdered *int64
	UnitPrice       *types.Money
}

// DeliveryInput records or edits a delivery. DeliveryDate defaults to now.
type DeliveryInput struct {
	QuantityDelivered int64
	DeliveryDate      *time.Time
}

// PaymentInput records or edits a payment. DatePaid defaults to now and Currency
// to the order currency.
type PaymentInput struct {
	AmountPaid types.Money
	DatePaid   *time.Time
	Currency   string
	Notes      *string
}

// --- Reads ---

// GetOrder returns the order with lines, deliveries and payments.
func (s *Service) GetOrder(ctx context.Context, orderID id.ID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, s.normalizeGetErr(err, orderID)
	}
	if o.DeletionMark || o.Kind != s.kind {
		return nil, apperror.NewNotFound(s.entityName(), orderID.String())
	}
	if err := s.loadChildren(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrders returns order headers.
func (s *Service) ListOrders(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// --- Order lifecycle ---

// CreateOrder creates an order with its lines and books its initial contribution.
func (s *Service) CreateOrder(ctx context.Context, in CreateInput) (*Order, error) {
	party, err := s.parties.GetByID(ctx, in.PartyID)
	if err != nil {
		return nil, err
	}
	if party.DeletionMark {
		return nil, apperror.NewFieldValidation("partyId", "party is deleted")
	}

	orderDate := in.OrderDate
	if orderDate.IsZero() {
		orderDate = s.now()
	}
	o := NewOrder(s.kind, in.PartyID, orderDate)
	o.PartyName = party.Name
	o.Currency = types.Currency(in.Currency)
	if in.Currency == "" {
		o.Currency = party.Currency
	}
	if err := o.Validate(ctx); err != nil {
		return nil, err
	}

	var out *Order
	err = s.withPartyLock(ctx, o.PartyID, func(ctx context.Context) error {
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.codes.AssignOrderCode(ctx, o); err != nil {
				return err
			}
			if err := s.repo.Create(ctx, o); err != nil {
				return fmt.Errorf("create %s: %w", s.entityName(), err)
			}
			for _, li := range in.Items {
				if _, err := s.addLine(ctx, o, li); err != nil {
					return err
				}
			}
			var err error
			out, err = s.recomputeAndSave(ctx, o, "order created")
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order created",
		"id", out.ID,
		"kind", out.Kind,
		"order_code", out.OrderCode,
		"party_id", out.PartyID,
		"order_value", out.OrderValue.String(),
	)
	return out, nil
}

// UpdateOrder changes header fields and recomputes the order.
func (s *Service) UpdateOrder(ctx context.Context, orderID id.ID, in UpdateInput) (*Order, error) {
	return s.mutate(ctx, orderID, "order updated", func(ctx context.Context, o *Order) error {
		if in.Version != 0 && in.Version != o.Version {
			return apperror.NewConcurrentModification(s.entityName(), orderID.String())
		}
		if in.OrderDate != nil {
			o.OrderDate = in.OrderDate.UTC()
		}
		if in.Currency != nil {
			cur, err := types.ParseCurrency(*in.Currency)
			if err != nil {
				return apperror.NewFieldValidation("currency", err.Error())
			}
			if cur != o.Currency && (len(o.Items) > 0 || len(o.Payments) > 0) {
				return apperror.NewBusinessRule(apperror.CodeBusinessRule, "currency cannot change once the order has lines or payments").
					WithDetail("currency", o.Currency)
			}
			o.Currency = cur
		}
		return o.Validate(ctx)
	})
}

// DeleteOrder subtracts the order's last known contribution from its party and
// soft-deletes it.
func (s *Service) DeleteOrder(ctx context.Context, orderID id.ID) error {
	partyID, err := s.partyOf(ctx, orderID)
	if err != nil {
		return err
	}
	return s.withPartyLock(ctx, partyID, func(ctx context.Context) error {
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			o, err := s.lockOrder(ctx, orderID)
			if err != nil {
				return err
			}
			old := o.Contribution()
			if !old.IsZero() {
				if _, err := s.parties.Adjust(ctx, o.PartyID, old.Neg(), o.ID, "order deleted"); err != nil {
					return err
				}
			}
			if err := s.repo.Delete(ctx, orderID); err != nil {
				return fmt.Errorf("delete %s: %w", s.entityName(), err)
			}
			logger.Info(ctx, "order deleted",
				"id", o.ID,
				"order_code", o.OrderCode,
				"released_paid", old.Paid.String(),
				"released_due", old.Due.String(),
			)
			return nil
		})
	})
}

// RecomputeAndSave re-derives the order from its children, persists the summary
// and books the change of contribution on the party.
func (s *Service) RecomputeAndSave(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.mutate(ctx, orderID, "recompute", nil)
}

// --- Lines ---

// AddItem adds a line to the order.
func (s *Service) AddItem(ctx context.Context, orderID id.ID, in ItemInput) (*Order, error) {
	return s.mutate(ctx, orderID, "item added", func(ctx context.Context, o *Order) error {
		_, err := s.addLine(ctx, o, in)
		return err
	})
}

// UpdateItem changes quantity or price of a line.
func (s *Service) UpdateItem(ctx context.Context, orderID, itemID id.ID, in ItemUpdate) (*Order, error) {
	return s.mutate(ctx, orderID, "item updated", func(ctx context.Context, o *Order) error {
		it := o.FindItem(itemID)
		if it == nil {
			return apperror.NewNotFound("order item", itemID.String())
		}
		if in.QuantityOrdered != nil {
			if *in.QuantityOrdered < it.QuantityDelivered {
				return apperror.NewBusinessRule(apperror.CodeBusinessRule, "quantity ordered cannot drop below quantity delivered").
					WithDetail("quantity_delivered", it.QuantityDelivered)
			}
			it.QuantityOrdered = *in.QuantityOrdered
		}
		if in.UnitPrice != nil {
			it.UnitPrice = types.Round(*in.UnitPrice)
		}
		if err := it.Validate(ctx); err != nil {
			return err
		}
		TrackDeliveries(it)
		it.UpdatedAt = s.now()
		return s.repo.UpdateItem(ctx, it)
	})
}

// RemoveItem deletes a line and its deliveries.
func (s *Service) RemoveItem(ctx context.Context, orderID, itemID id.ID) (*Order, error) {
	return s.mutate(ctx, orderID, "item removed", func(ctx context.Context, o *Order) error {
		if o.FindItem(itemID) == nil {
			return apperror.NewNotFound("order item", itemID.String())
		}
		return s.repo.DeleteItem(ctx, itemID)
	})
}

// --- Deliveries ---

// RecordDelivery records goods delivered against a line.
func (s *Service) RecordDelivery(ctx context.Context, orderID, itemID id.ID, in DeliveryInput) (*Order, error) {
	return s.mutate(ctx, orderID, "delivery recorded", func(ctx context.Context, o *Order) error {
		it := o.FindItem(itemID)
		if it == nil {
			return apperror.NewNotFound("order item", itemID.String())
		}
		d := &Delivery{
			ID:                id.New(),
			OrderItemID:       it.ID,
			QuantityDelivered: in.QuantityDelivered,
			DeliveryDate:      s.dateOrNow(in.DeliveryDate),
			CreatedAt:         s.now(),
		}
		if err := d.Validate(ctx); err != nil {
			return err
		}
		if err := CheckDeliveryQuantity(it, 0, d.QuantityDelivered); err != nil {
			return err
		}
		return s.repo.CreateDelivery(ctx, d)
	})
}

// UpdateDelivery edits a delivery.
func (s *Service) UpdateDelivery(ctx context.Context, orderID, deliveryID id.ID, in DeliveryInput) (*Order, error) {
	return s.mutate(ctx, orderID, "delivery updated", func(ctx context.Context, o *Order) error {
		it, d := o.FindDelivery(deliveryID)
		if d == nil {
			return apperror.NewNotFound("delivery", deliveryID.String())
		}
		if err := CheckDeliveryQuantity(it, d.QuantityDelivered, in.QuantityDelivered); err != nil {
			return err
		}
		d.QuantityDelivered = in.QuantityDelivered
		if in.DeliveryDate != nil {
			d.DeliveryDate = in.DeliveryDate.UTC()
		}
		if err := d.Validate(ctx); err != nil {
			return err
		}
		return s.repo.UpdateDelivery(ctx, d)
	})
}

// DeleteDelivery removes a delivery.
func (s *Service) DeleteDelivery(ctx context.Context, orderID, deliveryID id.ID) (*Order, error) {
	return s.mutate(ctx, orderID, "delivery deleted", func(ctx context.Context, o *Order) error {
		if _, d := o.FindDelivery(deliveryID); d == nil {
			return apperror.NewNotFound("delivery", deliveryID.String())
		}
		return s.repo.DeleteDelivery(ctx, deliveryID)
	})
}

// --- Payments ---

// ApplyPayment records a payment against the order.
func (s *Service) ApplyPayment(ctx context.Context, orderID id.ID, in PaymentInput) (*Order, error) {
	return s.mutate(ctx, orderID, "payment applied", func(ctx context.Context, o *Order) error {
		now := s.now()
		p := &Payment{
			ID:         id.New(),
			OrderID:    o.ID,
			AmountPaid: types.Round(in.AmountPaid),
			DatePaid:   s.dateOrNow(in.DatePaid),
			Notes:      in.Notes,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		cur, err := s.paymentCurrency(o, in.Currency)
		if err != nil {
			return err
		}
		p.Currency = cur
		if err := p.Validate(ctx); err != nil {
			return err
		}
		s.codes.AssignPaymentCode(o, p)
		if err := s.repo.CreatePayment(ctx, p); err != nil {
			return err
		}
		logger.Info(ctx, "payment applied",
			"order_id", o.ID,
			"payment_code", p.PaymentCode,
			"amount", p.AmountPaid.String(),
		)
		return nil
	})
}

// UpdatePayment edits a payment. Its code never changes.
func (s *Service) UpdatePayment(ctx context.Context, orderID, paymentID id.ID, in PaymentInput) (*Order, error) {
	return s.mutate(ctx, orderID, "payment updated", func(ctx context.Context, o *Order) error {
		p := o.FindPayment(paymentID)
		if p == nil {
			return apperror.NewNotFound("payment", paymentID.String())
		}
		p.AmountPaid = types.Round(in.AmountPaid)
		if in.DatePaid != nil {
			p.DatePaid = in.DatePaid.UTC()
		}
		if in.Notes != nil {
			p.Notes = in.Notes
		}
		if in.Currency != "" {
			cur, err := s.paymentCurrency(o, in.Currency)
			if err != nil {
				return err
			}
			p.Currency = cur
		}
		if err := p.Validate(ctx); err != nil {
			return err
		}
		p.UpdatedAt = s.now()
		return s.repo.UpdatePayment(ctx, p)
	})
}

// DeletePayment removes a payment.
func (s *Service) DeletePayment(ctx context.Context, orderID, paymentID id.ID) (*Order, error) {
	return s.mutate(ctx, orderID, "payment deleted", func(ctx context.Context, o *Order) error {
		if o.FindPayment(paymentID) == nil {
			return apperror.NewNotFound("payment", paymentID.String())
		}
		return s.repo.DeletePayment(ctx, paymentID)
	})
}

// --- internals ---

// mutate runs fn against the locked, fully loaded order and then recomputes it.
// A nil fn only recomputes.
func (s *Service) mutate(ctx context.Context, orderID id.ID, cause string, fn func(ctx context.Context, o *Order) error) (*Order, error) {
	partyID, err := s.partyOf(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var out *Order
	err = s.withPartyLock(ctx, partyID, func(ctx context.Context) error {
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			o, err := s.lockOrder(ctx, orderID)
			if err != nil {
				return err
			}
			if fn != nil {
				if err := s.loadChildren(ctx, o); err != nil {
					return err
				}
				if err := fn(ctx, o); err != nil {
					return err
				}
			}
			out, err = s.recomputeAndSave(ctx, o, cause)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// recomputeAndSave expects o to be locked in the current transaction. The stored
// summary on o is the snapshot the party delta is measured against.
func (s *Service) recomputeAndSave(ctx context.Context, o *Order, cause string) (*Order, error) {
	old := o.Contribution()

	if err := s.loadChildren(ctx, o); err != nil {
		return nil, err
	}
	for _, it := range o.Items {
		if TrackDeliveries(it) {
			it.UpdatedAt = s.now()
			if err := s.repo.UpdateItem(ctx, it); err != nil {
				return nil, fmt.Errorf("update order item: %w", err)
			}
		}
	}

	o.Apply(s.deriver.Derive(o))
	o.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("update %s: %w", s.entityName(), err)
	}

	delta := o.Contribution().Sub(old)
	if !delta.IsZero() {
		if _, err := s.parties.Adjust(ctx, o.PartyID, delta, o.ID, cause); err != nil {
			return nil, err
		}
	}

	logger.Debug(ctx, "order recomputed",
		"id", o.ID,
		"cause", cause,
		"payment_status", o.PaymentStatus,
		"order_status", o.OrderStatus,
		"amount_due", o.AmountDue.String(),
		"total_paid", o.TotalPaid.String(),
	)
	return o, nil
}

func (s *Service) addLine(ctx context.Context, o *Order, in ItemInput) (*OrderItem, error) {
	for _, existing := range o.Items {
		if existing.InventoryID == in.InventoryID {
			return nil, apperror.NewDuplicate("order item", "inventoryId", in.InventoryID.String())
		}
	}
	inv, err := s.catalog.GetOrderable(ctx, in.InventoryID)
	if err != nil {
		return nil, err
	}
	price := inv.UnitPrice
	if in.UnitPrice != nil {
		price = *in.UnitPrice
	}
	price = types.Round(price)
	it := NewOrderItem(o.ID, inv.ID, in.QuantityOrdered, price, o.Currency)
	it.ItemName = inv.ItemName
	if err := it.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.CreateItem(ctx, it); err != nil {
		return nil, err
	}
	o.Items = append(o.Items, it)
	return it, nil
}

func (s *Service) loadChildren(ctx context.Context, o *Order) error {
	items, err := s.repo.GetItems(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	payments, err := s.repo.GetPayments(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("load payments: %w", err)
	}
	o.Items = items
	o.Payments = payments
	return nil
}

func (s *Service) lockOrder(ctx context.Context, orderID id.ID) (*Order, error) {
	o, err := s.repo.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, s.normalizeGetErr(err, orderID)
	}
	if o.DeletionMark || o.Kind != s.kind {
		return nil, apperror.NewNotFound(s.entityName(), orderID.String())
	}
	return o, nil
}

// partyOf reads the owning party without locking, to name the distributed lock.
// The party of an order never changes.
func (s *Service) partyOf(ctx context.Context, orderID id.ID) (id.ID, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return id.Nil(), s.normalizeGetErr(err, orderID)
	}
	if o.DeletionMark || o.Kind != s.kind {
		return id.Nil(), apperror.NewNotFound(s.entityName(), orderID.String())
	}
	return o.PartyID, nil
}

func (s *Service) withPartyLock(ctx context.Context, partyID id.ID, fn func(ctx context.Context) error) error {
	lease, err := s.locker.Obtain(ctx, lock.PartyKey(partyID.String()), lock.DefaultTTL)
	if err != nil {
		return err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn(ctx, "release party lock", "party_id", partyID, "error", err)
		}
	}()
	return fn(ctx)
}

func (s *Service) paymentCurrency(o *Order, raw string) (types.Currency, error) {
	if raw == "" {
		return o.Currency, nil
	}
	cur, err := types.ParseCurrency(raw)
	if err != nil {
		return "", apperror.NewFieldValidation("currency", err.Error())
	}
	if cur != o.Currency {
		return "", apperror.NewFieldValidation("currency", "payment currency must match order currency").
			WithDetail("order_currency", o.Currency.String())
	}
	return cur, nil
}

func (s *Service) dateOrNow(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return s.now()
	}
	return t.UTC()
}

func (s *Service) normalizeGetErr(err error, orderID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName(), orderID.String())
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName()).WithDetail("id", orderID.String())
}
