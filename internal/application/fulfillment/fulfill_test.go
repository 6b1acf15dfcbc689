package fulfillment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/weihan/medstock/internal/domain/drug"
	"github.com/weihan/medstock/internal/domain/order"
	"github.com/weihan/medstock/pkg/pagination"
)

// ========================================
// 内存假实现
// ========================================

// fakeStore 内存状态，事务假实现靠快照/恢复模拟回滚
type fakeStore struct {
	orders          map[uint]*order.Order
	drugs           map[uint]*drug.Drug
	administrations []*order.Administration
	nextAdminID     uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:      make(map[uint]*order.Order),
		drugs:       make(map[uint]*drug.Drug),
		nextAdminID: 1,
	}
}

func (s *fakeStore) snapshot() *fakeStore {
	cp := newFakeStore()
	cp.nextAdminID = s.nextAdminID
	for id, o := range s.orders {
		c := *o
		cp.orders[id] = &c
	}
	for id, d := range s.drugs {
		c := *d
		cp.drugs[id] = &c
	}
	cp.administrations = append(cp.administrations, s.administrations...)
	return cp
}

func (s *fakeStore) restore(snap *fakeStore) {
	s.orders = snap.orders
	s.drugs = snap.drugs
	s.administrations = snap.administrations
	s.nextAdminID = snap.nextAdminID
}

type fakeOrderRepo struct{ s *fakeStore }

func (r *fakeOrderRepo) Create(ctx context.Context, o *order.Order) error {
	r.s.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	return r.LockByID(ctx, id)
}

func (r *fakeOrderRepo) LockByID(ctx context.Context, id uint) (*order.Order, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	// 返回副本，调用方的状态机变更通过UpdateStatus落库
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id uint, status order.Status) error {
	o, ok := r.s.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (r *fakeOrderRepo) CreateAdministration(ctx context.Context, a *order.Administration) error {
	a.ID = r.s.nextAdminID
	r.s.nextAdminID++
	a.AdministrationTime = time.Now()
	r.s.administrations = append(r.s.administrations, a)
	return nil
}

func (r *fakeOrderRepo) ListOffset(ctx context.Context, skip, limit int) ([]*order.Order, int64, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepo) ListCursor(ctx context.Context, cursor pagination.Cursor, limit int) ([]*order.Order, error) {
	return nil, nil
}

func (r *fakeOrderRepo) ListByDoctor(ctx context.Context, doctorID uint) ([]*order.Order, error) {
	return nil, nil
}

func (r *fakeOrderRepo) ListActive(ctx context.Context) ([]*order.Order, error) {
	return nil, nil
}

type fakeDrugRepo struct{ s *fakeStore }

func (r *fakeDrugRepo) Create(ctx context.Context, d *drug.Drug) error {
	r.s.drugs[d.ID] = d
	return nil
}

func (r *fakeDrugRepo) FindByID(ctx context.Context, id uint) (*drug.Drug, error) {
	return r.LockByID(ctx, id)
}

func (r *fakeDrugRepo) LockByID(ctx context.Context, id uint) (*drug.Drug, error) {
	d, ok := r.s.drugs[id]
	if !ok {
		return nil, drug.ErrDrugNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDrugRepo) UpdateStock(ctx context.Context, id uint, delta int) error {
	d, ok := r.s.drugs[id]
	if !ok {
		return drug.ErrDrugNotFound
	}
	if d.CurrentStock+delta < 0 {
		return drug.ErrInsufficientStock
	}
	d.CurrentStock += delta
	return nil
}

func (r *fakeDrugRepo) SetStock(ctx context.Context, id uint, value int) error {
	d, ok := r.s.drugs[id]
	if !ok {
		return drug.ErrDrugNotFound
	}
	d.CurrentStock = value
	return nil
}

func (r *fakeDrugRepo) ListOffset(ctx context.Context, skip, limit int) ([]*drug.Drug, int64, error) {
	return nil, 0, nil
}

func (r *fakeDrugRepo) ListCursor(ctx context.Context, cursor pagination.Cursor, limit int) ([]*drug.Drug, error) {
	return nil, nil
}

func (r *fakeDrugRepo) ListLowStock(ctx context.Context) ([]*drug.Drug, error) {
	return nil, nil
}

// fakeTxManager 以快照/恢复模拟事务回滚
type fakeTxManager struct{ s *fakeStore }

func (m *fakeTxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := m.s.snapshot()
	if err := fn(ctx); err != nil {
		m.s.restore(snap)
		return err
	}
	return nil
}

// fakeCache 记录失效调用
type fakeCache struct {
	invalidated []string
}

func (c *fakeCache) Get(ctx context.Context, view string) ([]byte, bool, error) {
	return nil, false, nil
}

func (c *fakeCache) Set(ctx context.Context, view string, data []byte, ttl time.Duration) error {
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, views ...string) error {
	c.invalidated = append(c.invalidated, views...)
	return nil
}

// fakePublisher 记录发布的事件
type fakePublisher struct {
	events []publishedEvent
}

type publishedEvent struct {
	routingKey string
	message    interface{}
}

func (p *fakePublisher) Publish(routingKey string, message interface{}) error {
	p.events = append(p.events, publishedEvent{routingKey, message})
	return nil
}

// ========================================
// 测试脚手架
// ========================================

type fixture struct {
	store     *fakeStore
	orderRepo *fakeOrderRepo
	drugRepo  *fakeDrugRepo
	tx        *fakeTxManager
	cache     *fakeCache
	publisher *fakePublisher
}

func newFixture() *fixture {
	s := newFakeStore()
	return &fixture{
		store:     s,
		orderRepo: &fakeOrderRepo{s},
		drugRepo:  &fakeDrugRepo{s},
		tx:        &fakeTxManager{s},
		cache:     &fakeCache{},
		publisher: &fakePublisher{},
	}
}

func (f *fixture) addDrug(id uint, stock, threshold int) {
	d := drug.NewDrug("阿莫西林", "胶囊", "500mg", stock, threshold)
	d.ID = id
	f.store.drugs[id] = d
}

func (f *fixture) addOrder(id, drugID uint, dosage int, status order.Status) {
	o := order.NewOrder("张伟", drugID, 10, dosage)
	o.ID = id
	o.Status = status
	f.store.orders[id] = o
}

func (f *fixture) fulfillUseCase() *FulfillUseCase {
	return NewFulfillUseCase(f.orderRepo, f.drugRepo, f.tx, f.cache, f.publisher)
}

func (f *fixture) bulkUseCase() *FulfillBulkUseCase {
	return NewFulfillBulkUseCase(f.orderRepo, f.drugRepo, f.tx, f.cache, f.publisher)
}

func (f *fixture) countEvents(routingKey string) int {
	n := 0
	for _, e := range f.publisher.events {
		if e.routingKey == routingKey {
			n++
		}
	}
	return n
}

// ========================================
// 单笔履约
// ========================================

// TestFulfill_Success 测试正常履约
func TestFulfill_Success(t *testing.T) {
	f := newFixture()
	f.addDrug(1, 10, 3)
	f.addOrder(100, 1, 2, order.StatusActive)

	result, err := f.fulfillUseCase().Execute(context.Background(), FulfillRequest{
		OrderID: 100,
		NurseID: 7,
	})
	if err != nil {
		t.Fatalf("履约失败: %v", err)
	}

	if result.RemainingStock != 8 {
		t.Errorf("期望剩余库存8，实际%d", result.RemainingStock)
	}
	if result.Status != "completed" {
		t.Errorf("期望状态completed，实际%s", result.Status)
	}
	if result.NurseID != 7 {
		t.Errorf("期望护士ID为7，实际%d", result.NurseID)
	}

	// 落库状态
	if f.store.drugs[1].CurrentStock != 8 {
		t.Errorf("库存应扣至8，实际%d", f.store.drugs[1].CurrentStock)
	}
	if f.store.orders[100].Status != order.StatusCompleted {
		t.Errorf("医嘱应为completed，实际%s", f.store.orders[100].Status)
	}
	if len(f.store.administrations) != 1 {
		t.Fatalf("应产生1条给药记录，实际%d条", len(f.store.administrations))
	}
	if f.store.administrations[0].NurseID != 7 {
		t.Errorf("给药记录护士ID错误: %d", f.store.administrations[0].NurseID)
	}

	// 提交后副作用
	if len(f.cache.invalidated) != 3 {
		t.Errorf("应失效3个视图，实际%v", f.cache.invalidated)
	}
	if f.countEvents(EventAdministered) != 1 {
		t.Errorf("应发布1条给药事件，实际%d条", f.countEvents(EventAdministered))
	}
	if f.countEvents(EventStockLow) != 0 {
		t.Errorf("库存8阈值3不应发布低库存事件")
	}
}

// TestFulfill_LowStockEvent 扣减后触达阈值发布低库存事件
func TestFulfill_LowStockEvent(t *testing.T) {
	f := newFixture()
	f.addDrug(1, 5, 3)
	f.addOrder(100, 1, 2, order.StatusActive)

	_, err := f.fulfillUseCase().Execute(context.Background(), FulfillRequest{OrderID: 100, NurseID: 7})
	if err != nil {
		t.Fatalf("履约失败: %v", err)
	}

	// 剩余3 == 阈值3，应告警
	if f.countEvents(EventStockLow) != 1 {
		t.Errorf("期望1条低库存事件，实际%d条", f.countEvents(EventStockLow))
	}
}

// TestFulfill_InsufficientStock 库存不足时整体回滚
func TestFulfill_InsufficientStock(t *testing.T) {
	f := newFixture()
	f.addDrug(1, 1, 0)
	f.addOrder(100, 1, 2, order.StatusActive)

	_, err := f.fulfillUseCase().Execute(context.Background(), FulfillRequest{OrderID: 100, NurseID: 7})
	if err != drug.ErrInsufficientStock {
		t.Fatalf("期望ErrInsufficientStock，实际%v", err)
	}

	// 状态不变
	if f.store.drugs[1].CurrentStock != 1 {
		t.Errorf("库存不应变化，实际%d", f.store.drugs[1].CurrentStock)
	}
	if f.store.orders[100].Status != order.StatusActive {
		t.Errorf("医嘱应保持active，实际%s", f.store.orders[100].Status)
	}
	if len(f.store.administrations) != 0 {
		t.Errorf("不应产生给药记录")
	}
	if len(f.cache.invalidated) != 0 {
		t.Errorf("失败不应失效缓存: %v", f.cache.invalidated)
	}
	if len(f.publisher.events) != 0 {
		t.Errorf("失败不应发布事件")
	}
}

// TestFulfill_AlreadyCompleted 重复履约返回已完成错误
func TestFulfill_AlreadyCompleted(t *testing.T) {
	f := newFixture()
	f.addDrug(1, 10, 3)
	f.addOrder(100, 1, 2, order.StatusCompleted)

	_, err := f.fulfillUseCase().Execute(context.Background(), FulfillRequest{OrderID: 100, NurseID: 7})
	if err != order.ErrOrderAlreadyCompleted {
		t.Errorf("期望ErrOrderAlreadyCompleted，实际%v", err)
	}
	if f.store.drugs[1].CurrentStock != 10 {
		t.Errorf("库存不应变化，实际%d", f.store.drugs[1].CurrentStock)
	}
}

// TestFulfill_Discontinued 已停用医嘱不可履约
func TestFulfill_Discontinued(t *testing.T) {
	f := newFixture()
	f.addDrug(1, 10, 3)
	f.addOrder(100, 1, 2, order.StatusDiscontinued)

	_, err := f.fulfillUseCase().Execute(context.Background(), FulfillRequest{OrderID: 100, NurseID: 7})
	if err != order.ErrInvalidStatusTransition {
		t.Errorf("期望ErrInvalidStatusTransition，实际%v", err)
	}
}

// TestFulfill_OrderNotFound 医嘱不存在
func TestFulfill_OrderNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.fulfillUseCase().Execute(context.Background(), FulfillRequest{OrderID: 999, NurseID: 7})
	if err != order.ErrOrderNotFound {
		t.Errorf("期望ErrOrderNotFound，实际%v", err)
	}
}

// TestFulfill_NilPublisher MQ未启用时正常履约
func TestFulfill_NilPublisher(t *testing.T) {
	f := newFixture()
	f.addDrug(1, 10, 3)
	f.addOrder(100, 1, 2, order.StatusActive)

	uc := NewFulfillUseCase(f.orderRepo, f.drugRepo, f.tx, f.cache, nil)
	if _, err := uc.Execute(context.Background(), FulfillRequest{OrderID: 100, NurseID: 7}); err != nil {
		t.Fatalf("publisher为nil时履约失败: %v", err)
	}
}

// ========================================
// 批量履约
// ========================================

// TestFulfillBulk_Success 批量全部成功
func TestFulfillBulk_Success(t *testing.T) {
	f := newFixture()
	f.addDrug(1, 10, 0)
	f.addOrder(100, 1, 2, order.StatusActive)
	f.addOrder(101, 1, 3, order.StatusActive)

	resp, err := f.bulkUseCase().Execute(context.Background(), FulfillBulkRequest{
		OrderIDs: []uint{101, 100},
		NurseID:  7,
	})
	if err != nil {
		t.Fatalf("批量履约失败: %v", err)
	}

	if resp.Count != 2 {
		t.Errorf("期望2笔履约，实际%d", resp.Count)
	}
	if f.store.drugs[1].CurrentStock != 5 {
		t.Errorf("库存应扣至5，实际%d", f.store.drugs[1].CurrentStock)
	}
	// 按ID升序执行
	if resp.Results[0].OrderID != 100 || resp.Results[1].OrderID != 101 {
		t.Errorf("应按ID升序履约: %d, %d", resp.Results[0].OrderID, resp.Results[1].OrderID)
	}
	// 缓存失效只做一次（3个视图）
	if len(f.cache.invalidated) != 3 {
		t.Errorf("批量应只失效一轮视图，实际%v", f.cache.invalidated)
	}
	if f.countEvents(EventAdministered) != 2 {
		t.Errorf("期望2条给药事件，实际%d条", f.countEvents(EventAdministered))
	}
}

// TestFulfillBulk_AllOrNothing 任一失败整批回滚
func TestFulfillBulk_AllOrNothing(t *testing.T) {
	f := newFixture()
	f.addDrug(1, 3, 0)
	f.addOrder(100, 1, 2, order.StatusActive) // 成功
	f.addOrder(101, 1, 2, order.StatusActive) // 库存不足

	_, err := f.bulkUseCase().Execute(context.Background(), FulfillBulkRequest{
		OrderIDs: []uint{100, 101},
		NurseID:  7,
	})
	if err == nil {
		t.Fatal("期望批量履约失败")
	}
	if !strings.Contains(err.Error(), "医嘱[101]") {
		t.Errorf("错误信息应标明失败的医嘱ID: %v", err)
	}

	// 整批回滚，包括已成功的第一笔
	if f.store.drugs[1].CurrentStock != 3 {
		t.Errorf("库存应回滚至3，实际%d", f.store.drugs[1].CurrentStock)
	}
	if f.store.orders[100].Status != order.StatusActive {
		t.Errorf("医嘱100应回滚为active，实际%s", f.store.orders[100].Status)
	}
	if len(f.store.administrations) != 0 {
		t.Errorf("整批回滚不应留下给药记录")
	}
	if len(f.cache.invalidated) != 0 {
		t.Errorf("失败不应失效缓存")
	}
}

// TestFulfillBulk_EmptyBatch 空列表直接拒绝
func TestFulfillBulk_EmptyBatch(t *testing.T) {
	f := newFixture()

	_, err := f.bulkUseCase().Execute(context.Background(), FulfillBulkRequest{NurseID: 7})
	if err != order.ErrEmptyBatch {
		t.Errorf("期望ErrEmptyBatch，实际%v", err)
	}
}

// TestFulfillBulk_Dedupe 重复ID只履约一次
func TestFulfillBulk_Dedupe(t *testing.T) {
	f := newFixture()
	f.addDrug(1, 10, 0)
	f.addOrder(100, 1, 2, order.StatusActive)

	resp, err := f.bulkUseCase().Execute(context.Background(), FulfillBulkRequest{
		OrderIDs: []uint{100, 100, 100},
		NurseID:  7,
	})
	if err != nil {
		t.Fatalf("批量履约失败: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("去重后期望1笔，实际%d", resp.Count)
	}
	if f.store.drugs[1].CurrentStock != 8 {
		t.Errorf("库存只应扣一次，实际%d", f.store.drugs[1].CurrentStock)
	}
}

// TestDedupeSorted 测试去重排序
func TestDedupeSorted(t *testing.T) {
	got := dedupeSorted([]uint{3, 1, 3, 2, 1})
	want := []uint{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("期望%v，实际%v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("期望%v，实际%v", want, got)
		}
	}
}

// TestResultLabel 履约错误映射为指标标签
func TestResultLabel(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"库存不足", drug.ErrInsufficientStock, "insufficient_stock"},
		{"医嘱已完成", order.ErrOrderAlreadyCompleted, "state_conflict"},
		{"医嘱已停用", order.ErrInvalidStatusTransition, "state_conflict"},
		{"医嘱不存在", order.ErrOrderNotFound, "not_found"},
		{"药品不存在", drug.ErrDrugNotFound, "not_found"},
		{"未知错误", errors.New("连接中断"), "error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resultLabel(tc.err); got != tc.want {
				t.Errorf("期望%s，实际%s", tc.want, got)
			}
		})
	}
}
