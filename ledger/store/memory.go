// Package store provides ledger.Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/daybook/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements ledger.ShopStore with plain maps. Safe for
// concurrent use; every read returns copies.
type Memory struct {
	mu sync.RWMutex

	shops    map[ledger.ShopID]ledger.Shop
	products map[ledger.ShopID][]ledger.Product

	stock  map[dayKey]map[ledger.ProductID]ledger.StockLine
	cash   map[dayKey]ledger.CashLedger
	extras map[string][]ledger.ExtraTransaction

	credits  map[dayKey][]ledger.CreditEntry
	debtors  map[ledger.ShopID]map[string]ledger.Debtor
	requests map[string]ledger.ApprovalRequest
	archives []ledger.PDFArchive

	// CreditsConfigured simulates the optional credit subsystem. When
	// false, credit/debtor calls return ErrCreditLedgerNotConfigured.
	CreditsConfigured bool

	seq int
}

type dayKey struct {
	Shop ledger.ShopID
	Date string
}

func key(shop ledger.ShopID, date ledger.DayDate) dayKey {
	return dayKey{Shop: shop, Date: date.String()}
}

func NewMemory() *Memory {
	return &Memory{
		shops:             make(map[ledger.ShopID]ledger.Shop),
		products:          make(map[ledger.ShopID][]ledger.Product),
		stock:             make(map[dayKey]map[ledger.ProductID]ledger.StockLine),
		cash:              make(map[dayKey]ledger.CashLedger),
		extras:            make(map[string][]ledger.ExtraTransaction),
		credits:           make(map[dayKey][]ledger.CreditEntry),
		debtors:           make(map[ledger.ShopID]map[string]ledger.Debtor),
		requests:          make(map[string]ledger.ApprovalRequest),
		CreditsConfigured: true,
	}
}

func (m *Memory) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

// --- Shops & products ---

func (m *Memory) Shops(_ context.Context) ([]ledger.Shop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Shop, 0, len(m.shops))
	for _, s := range m.shops {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) SaveShop(_ context.Context, shop ledger.Shop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if shop.ID == "" {
		shop.ID = ledger.ShopID(m.nextID("shop"))
	}
	if shop.CreatedAt.IsZero() {
		shop.CreatedAt = time.Now().UTC()
	}
	m.shops[shop.ID] = shop
	return nil
}

func (m *Memory) SaveProduct(_ context.Context, p ledger.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = ledger.ProductID(m.nextID("prod"))
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	list := m.products[p.ShopID]
	for i := range list {
		if list[i].ID == p.ID {
			list[i] = p
			return nil
		}
	}
	m.products[p.ShopID] = append(list, p)
	return nil
}

func (m *Memory) Products(_ context.Context, shop ledger.ShopID) ([]ledger.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Product, len(m.products[shop]))
	copy(out, m.products[shop])
	return out, nil
}

// --- Stock lines ---

func (m *Memory) StockLines(_ context.Context, shop ledger.ShopID, date ledger.DayDate) ([]ledger.StockLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.stock[key(shop, date)]
	out := make([]ledger.StockLine, 0, len(rows))
	for _, l := range rows {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (m *Memory) StockLine(_ context.Context, shop ledger.ShopID, date ledger.DayDate, product ledger.ProductID) (*ledger.StockLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.stock[key(shop, date)][product]; ok {
		cp := l
		return &cp, nil
	}
	return nil, ledger.ErrNotFound
}

func (m *Memory) UpsertStockLines(_ context.Context, lines []ledger.StockLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, l := range lines {
		k := key(l.ShopID, l.EntryDate)
		rows := m.stock[k]
		if rows == nil {
			rows = make(map[ledger.ProductID]ledger.StockLine)
			m.stock[k] = rows
		}
		if existing, ok := rows[l.ProductID]; ok {
			l.ID = existing.ID
			l.CreatedAt = existing.CreatedAt
		} else {
			if l.ID == "" {
				l.ID = m.nextID("line")
			}
			l.CreatedAt = now
		}
		l.UpdatedAt = now
		rows[l.ProductID] = l
	}
	return nil
}

// --- Cash ledger ---

func (m *Memory) CashLedger(_ context.Context, shop ledger.ShopID, date ledger.DayDate) (*ledger.CashLedger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.cash[key(shop, date)]; ok {
		cp := c
		cp.Notes = append([]ledger.NoteCount(nil), c.Notes...)
		cp.Digital = append([]ledger.DigitalPayment(nil), c.Digital...)
		return &cp, nil
	}
	return nil, ledger.ErrNotFound
}

func (m *Memory) UpsertCashLedger(_ context.Context, cash *ledger.CashLedger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	k := key(cash.ShopID, cash.EntryDate)
	if existing, ok := m.cash[k]; ok {
		cash.ID = existing.ID
		cash.CreatedAt = existing.CreatedAt
	} else {
		if cash.ID == "" {
			cash.ID = m.nextID("cash")
		}
		cash.CreatedAt = now
	}
	cash.UpdatedAt = now
	cp := *cash
	cp.Notes = append([]ledger.NoteCount(nil), cash.Notes...)
	cp.Digital = append([]ledger.DigitalPayment(nil), cash.Digital...)
	m.cash[k] = cp
	return nil
}

// --- Extra transactions ---

func (m *Memory) ExtraTransactions(_ context.Context, cashLedgerID string) ([]ledger.ExtraTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.ExtraTransaction, len(m.extras[cashLedgerID]))
	copy(out, m.extras[cashLedgerID])
	return out, nil
}

func (m *Memory) ReplaceExtraTransactions(_ context.Context, cashLedgerID string, txs []ledger.ExtraTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	replaced := make([]ledger.ExtraTransaction, 0, len(txs))
	for _, t := range txs {
		t.ID = m.nextID("extra")
		t.CashLedgerID = cashLedgerID
		t.CreatedAt = now
		replaced = append(replaced, t)
	}
	m.extras[cashLedgerID] = replaced
	return nil
}

// --- Credit entries & debtors ---

func (m *Memory) CreditEntries(_ context.Context, shop ledger.ShopID, date ledger.DayDate) ([]ledger.CreditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.CreditsConfigured {
		return nil, ledger.ErrCreditLedgerNotConfigured
	}
	out := make([]ledger.CreditEntry, len(m.credits[key(shop, date)]))
	copy(out, m.credits[key(shop, date)])
	return out, nil
}

func (m *Memory) UpsertCreditEntries(_ context.Context, shop ledger.ShopID, date ledger.DayDate, entries []ledger.CreditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.CreditsConfigured {
		return ledger.ErrCreditLedgerNotConfigured
	}
	now := time.Now().UTC()
	stored := make([]ledger.CreditEntry, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			e.ID = m.nextID("credit")
			e.CreatedAt = now
		}
		e.ShopID = shop
		e.EntryDate = date
		e.UpdatedAt = now
		stored = append(stored, e)
	}
	m.credits[key(shop, date)] = stored
	return nil
}

func (m *Memory) UpsertDebtor(_ context.Context, shop ledger.ShopID, personName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.CreditsConfigured {
		return ledger.ErrCreditLedgerNotConfigured
	}
	byName := m.debtors[shop]
	if byName == nil {
		byName = make(map[string]ledger.Debtor)
		m.debtors[shop] = byName
	}
	if _, ok := byName[personName]; !ok {
		byName[personName] = ledger.Debtor{
			ID:         m.nextID("debtor"),
			ShopID:     shop,
			PersonName: personName,
			CreatedAt:  time.Now().UTC(),
		}
	}
	return nil
}

// Debtors returns the shop's debtor registry, name-sorted.
func (m *Memory) Debtors(_ context.Context, shop ledger.ShopID) ([]ledger.Debtor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.CreditsConfigured {
		return nil, ledger.ErrCreditLedgerNotConfigured
	}
	out := make([]ledger.Debtor, 0, len(m.debtors[shop]))
	for _, d := range m.debtors[shop] {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonName < out[j].PersonName })
	return out, nil
}

// --- Approval requests ---

func (m *Memory) CreateApprovalRequest(_ context.Context, req ledger.ApprovalRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.ID == "" {
		req.ID = m.nextID("req")
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	m.requests[req.ID] = req
	return req.ID, nil
}

func (m *Memory) ResolveApprovalRequest(_ context.Context, id string, status ledger.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return ledger.ErrNotFound
	}
	if req.Status != ledger.RequestPending {
		return ledger.ErrRequestNotPending
	}
	now := time.Now().UTC()
	req.Status = status
	req.ResolvedAt = &now
	m.requests[id] = req
	return nil
}

func (m *Memory) PendingApprovalRequests(_ context.Context, shop ledger.ShopID) ([]ledger.ApprovalRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.ApprovalRequest
	for _, req := range m.requests {
		if req.ShopID == shop && req.Status == ledger.RequestPending {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Requests returns every approval request for a shop-day, oldest first.
func (m *Memory) Requests(_ context.Context, shop ledger.ShopID, date ledger.DayDate) ([]ledger.ApprovalRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.ApprovalRequest
	for _, req := range m.requests {
		if req.ShopID == shop && req.EntryDate.Equal(date) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- Archive index ---

func (m *Memory) AppendPDFArchive(_ context.Context, rec ledger.PDFArchive) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		rec.ID = m.nextID("pdf")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	m.archives = append(m.archives, rec)
	return nil
}

// Archives returns the archive index, append order.
func (m *Memory) Archives(_ context.Context) ([]ledger.PDFArchive, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.PDFArchive, len(m.archives))
	copy(out, m.archives)
	return out, nil
}
