package gift

import (
	"strconv"
	"sync"
	"time"
)

type MutationStatus string

const (
	MutationPending   MutationStatus = "pending"
	MutationConfirmed MutationStatus = "confirmed"
	MutationFailed    MutationStatus = "failed"
)

// keepMutations 只保留最近的若干条记录用于展示
const keepMutations = 32

// Mutation 一次会改变余额的操作
type Mutation struct {
	Id        string         `json:"id"`
	Kind      string         `json:"kind"`
	Delta     int64          `json:"delta"`
	Status    MutationStatus `json:"status"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Ledger 本地余额缓存
// 余额只取服务端返回值；进行中的操作单独记录，失败时无需回滚
type Ledger struct {
	mu        sync.Mutex
	balance   int64
	known     bool
	seq       int
	mutations []Mutation
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Set 用服务端余额覆盖
func (l *Ledger) Set(balance int64) {
	l.mu.Lock()
	l.balance, l.known = balance, true
	l.mu.Unlock()
}

// Balance 最近一次确认的余额；从未同步过时 known 为 false
func (l *Ledger) Balance() (balance int64, known bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance, l.known
}

// Projected 确认余额加上进行中操作的预期变化，仅用于展示
func (l *Ledger) Projected() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := l.balance
	for _, m := range l.mutations {
		if m.Status == MutationPending {
			p += m.Delta
		}
	}
	return p
}

// Begin 记录一条进行中的操作，返回其 id
func (l *Ledger) Begin(kind string, delta int64, at time.Time) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	id := kind + "#" + strconv.Itoa(l.seq)
	l.mutations = append(l.mutations, Mutation{Id: id, Kind: kind, Delta: delta, Status: MutationPending, CreatedAt: at})
	if n := len(l.mutations); n > keepMutations {
		l.mutations = append([]Mutation(nil), l.mutations[n-keepMutations:]...)
	}
	return id
}

// Confirm 操作成功，余额以服务端返回为准
func (l *Ledger) Confirm(id string, balance int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance, l.known = balance, true
	l.mark(id, MutationConfirmed, "")
}

// Fail 操作失败，余额保持不变
func (l *Ledger) Fail(id string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	l.mark(id, MutationFailed, msg)
}

func (l *Ledger) mark(id string, status MutationStatus, msg string) {
	for i := range l.mutations {
		if l.mutations[i].Id == id {
			l.mutations[i].Status = status
			l.mutations[i].Error = msg
			return
		}
	}
}

func (l *Ledger) Mutations() []Mutation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Mutation(nil), l.mutations...)
}
