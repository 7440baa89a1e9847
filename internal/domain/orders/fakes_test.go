package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/id"
	"orderledger/internal/core/lock"
	"orderledger/internal/core/types"
	"orderledger/internal/domain"
	"orderledger/internal/domain/inventory"
	"orderledger/internal/domain/parties"
)

// memRepo is an in-memory Repository. It stores copies so callers cannot mutate
// stored state without going through the repository, like a real database.
type memRepo struct {
	mu         sync.Mutex
	orders     map[id.ID]*Order
	items      map[id.ID]*OrderItem
	itemOrder  []id.ID
	deliveries map[id.ID]*Delivery
	delOrder   []id.ID
	payments   map[id.ID]*Payment
	payOrder   []id.ID
	locked     []id.ID
}

func newMemRepo() *memRepo {
	return &memRepo{
		orders:     map[id.ID]*Order{},
		items:      map[id.ID]*OrderItem{},
		deliveries: map[id.ID]*Delivery{},
		payments:   map[id.ID]*Payment{},
	}
}

func copyOrder(o *Order) *Order {
	c := *o
	c.Items = nil
	c.Payments = nil
	return &c
}

func (r *memRepo) Create(ctx context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orders {
		if existing.Kind == o.Kind && existing.OrderCode == o.OrderCode {
			return apperror.NewDuplicate("order", "order_code", "")
		}
	}
	r.orders[o.ID] = copyOrder(o)
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID)
	}
	return copyOrder(o), nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*Order, error) {
	r.mu.Lock()
	r.locked = append(r.locked, orderID)
	r.mu.Unlock()
	return r.GetByID(ctx, orderID)
}

func (r *memRepo) Update(ctx context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[o.ID]
	if !ok {
		return apperror.NewNotFound("order", o.ID)
	}
	if stored.Version != o.Version {
		return apperror.NewConcurrentModification("order", o.ID)
	}
	o.Version++
	r.orders[o.ID] = copyOrder(o)
	return nil
}

func (r *memRepo) Delete(ctx context.Context, orderID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return apperror.NewNotFound("order", orderID)
	}
	o.DeletionMark = true
	return nil
}

func (r *memRepo) List(ctx context.Context, f ListFilter) (domain.ListResult[*Order], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Order
	for _, o := range r.orders {
		if o.DeletionMark && !f.IncludeDeleted {
			continue
		}
		if f.PartyID != nil && o.PartyID != *f.PartyID {
			continue
		}
		if f.PaymentStatus != nil && o.PaymentStatus != *f.PaymentStatus {
			continue
		}
		out = append(out, copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderCode < out[j].OrderCode })
	return domain.ListResult[*Order]{Items: out, TotalCount: int64(len(out)), Limit: f.Limit, Offset: f.Offset}, nil
}

func (r *memRepo) LockByParty(ctx context.Context, partyID id.ID) ([]id.ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []id.ID
	for _, o := range r.orders {
		if o.PartyID == partyID && !o.DeletionMark {
			ids = append(ids, o.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	r.locked = append(r.locked, ids...)
	return ids, nil
}

func (r *memRepo) ListUnpaidIDs(ctx context.Context) ([]id.ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []id.ID
	for _, o := range r.orders {
		if !o.DeletionMark && o.PaymentStatus != PaymentPaid {
			ids = append(ids, o.ID)
		}
	}
	return ids, nil
}

func (r *memRepo) GetItems(ctx context.Context, orderID id.ID) ([]*OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*OrderItem
	for _, itemID := range r.itemOrder {
		it, ok := r.items[itemID]
		if !ok || it.OrderID != orderID {
			continue
		}
		c := *it
		c.Deliveries = nil
		for _, dID := range r.delOrder {
			if d, ok := r.deliveries[dID]; ok && d.OrderItemID == it.ID {
				dc := *d
				c.Deliveries = append(c.Deliveries, &dc)
			}
		}
		out = append(out, &c)
	}
	return out, nil
}

func (r *memRepo) CreateItem(ctx context.Context, it *OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.OrderID == it.OrderID && existing.InventoryID == it.InventoryID {
			return apperror.NewDuplicate("order item", "inventory_id", it.InventoryID.String())
		}
	}
	c := *it
	c.Deliveries = nil
	r.items[it.ID] = &c
	r.itemOrder = append(r.itemOrder, it.ID)
	return nil
}

func (r *memRepo) UpdateItem(ctx context.Context, it *OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[it.ID]; !ok {
		return apperror.NewNotFound("order item", it.ID)
	}
	c := *it
	c.Deliveries = nil
	r.items[it.ID] = &c
	return nil
}

func (r *memRepo) DeleteItem(ctx context.Context, itemID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, itemID)
	for dID, d := range r.deliveries {
		if d.OrderItemID == itemID {
			delete(r.deliveries, dID)
		}
	}
	return nil
}

func (r *memRepo) CreateDelivery(ctx context.Context, d *Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *d
	r.deliveries[d.ID] = &c
	r.delOrder = append(r.delOrder, d.ID)
	return nil
}

func (r *memRepo) UpdateDelivery(ctx context.Context, d *Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *d
	r.deliveries[d.ID] = &c
	return nil
}

func (r *memRepo) DeleteDelivery(ctx context.Context, deliveryID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.deliveries, deliveryID)
	return nil
}

func (r *memRepo) GetPayments(ctx context.Context, orderID id.ID) ([]*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Payment
	for _, pID := range r.payOrder {
		if p, ok := r.payments[pID]; ok && p.OrderID == orderID {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memRepo) CreatePayment(ctx context.Context, p *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.payments {
		if existing.PaymentCode == p.PaymentCode {
			return apperror.NewDuplicate("payment", "payment_code", p.PaymentCode)
		}
	}
	c := *p
	r.payments[p.ID] = &c
	r.payOrder = append(r.payOrder, p.ID)
	return nil
}

func (r *memRepo) UpdatePayment(ctx context.Context, p *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *p
	r.payments[p.ID] = &c
	return nil
}

func (r *memRepo) DeletePayment(ctx context.Context, paymentID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.payments, paymentID)
	return nil
}

// memPartyRepo is an in-memory parties.Repository.
type memPartyRepo struct {
	mu      sync.Mutex
	parties map[id.ID]*parties.Party
}

func newMemPartyRepo() *memPartyRepo {
	return &memPartyRepo{parties: map[id.ID]*parties.Party{}}
}

func (r *memPartyRepo) Create(ctx context.Context, p *parties.Party) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *p
	r.parties[p.ID] = &c
	return nil
}

func (r *memPartyRepo) GetByID(ctx context.Context, partyID id.ID) (*parties.Party, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parties[partyID]
	if !ok {
		return nil, apperror.NewNotFound("party", partyID)
	}
	c := *p
	return &c, nil
}

func (r *memPartyRepo) Update(ctx context.Context, p *parties.Party) error {
	return r.Create(ctx, p)
}

func (r *memPartyRepo) Delete(ctx context.Context, partyID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parties[partyID].DeletionMark = true
	return nil
}

func (r *memPartyRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*parties.Party], error) {
	return domain.ListResult[*parties.Party]{}, nil
}

func (r *memPartyRepo) GetForUpdate(ctx context.Context, partyID id.ID) (*parties.Party, error) {
	return r.GetByID(ctx, partyID)
}

func (r *memPartyRepo) AdjustTotals(ctx context.Context, partyID id.ID, delta parties.Balance) (parties.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parties[partyID]
	if !ok {
		return parties.Balance{}, apperror.NewNotFound("party", partyID)
	}
	p.TotalPaid = p.TotalPaid.Add(delta.Paid)
	p.TotalDue = p.TotalDue.Add(delta.Due)
	return p.Balance(), nil
}

func (r *memPartyRepo) SetTotals(ctx context.Context, partyID id.ID, totals parties.Balance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.parties[partyID]
	p.TotalPaid = totals.Paid
	p.TotalDue = totals.Due
	return nil
}

func (r *memPartyRepo) ListIDs(ctx context.Context) ([]id.ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []id.ID
	for pid, p := range r.parties {
		if !p.DeletionMark {
			ids = append(ids, pid)
		}
	}
	return ids, nil
}

func (r *memPartyRepo) balance(partyID id.ID) parties.Balance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parties[partyID].Balance()
}

// corrupt simulates a write path that bypassed the accumulator.
func (r *memPartyRepo) corrupt(partyID id.ID, paid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parties[partyID].TotalPaid = types.MustMoney(paid)
}

// recordingJournal collects journal entries.
type recordingJournal struct {
	mu      sync.Mutex
	entries []parties.JournalEntry
}

func (j *recordingJournal) Record(ctx context.Context, e parties.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

// memCatalog resolves inventory items from a map.
type memCatalog map[id.ID]*inventory.Item

func (c memCatalog) GetOrderable(ctx context.Context, itemID id.ID) (*inventory.Item, error) {
	it, ok := c[itemID]
	if !ok {
		return nil, apperror.NewNotFound("inventory item", itemID)
	}
	if !it.IsActive() {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "inventory item is not active")
	}
	return it, nil
}

// memSequencer counts per key from 1.
type memSequencer struct {
	mu   sync.Mutex
	next map[string]int64
}

func (s *memSequencer) NextValue(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next == nil {
		s.next = map[string]int64{}
	}
	s.next[key]++
	return s.next[key], nil
}

// memLocker serializes holders of one key in-process and counts leases.
type memLocker struct {
	mu       sync.Mutex
	keys     map[string]*sync.Mutex
	obtained int
	released int
}

func (l *memLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (lock.Lease, error) {
	l.mu.Lock()
	if l.keys == nil {
		l.keys = map[string]*sync.Mutex{}
	}
	m, ok := l.keys[key]
	if !ok {
		m = &sync.Mutex{}
		l.keys[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	l.mu.Lock()
	l.obtained++
	l.mu.Unlock()
	return &memLease{locker: l, key: m}, nil
}

// outstanding reports leases obtained and not yet released.
func (l *memLocker) outstanding() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.obtained - l.released
}

func (l *memLocker) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.obtained
}

type memLease struct {
	locker *memLocker
	key    *sync.Mutex
	once   sync.Once
}

func (l *memLease) Release(ctx context.Context) error {
	l.once.Do(func() {
		l.locker.mu.Lock()
		l.locker.released++
		l.locker.mu.Unlock()
		l.key.Unlock()
	})
	return nil
}
