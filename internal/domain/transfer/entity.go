package transfer

import (
	"time"

	"github.com/weihan/medstock/internal/domain/drug"
	"github.com/weihan/medstock/internal/domain/user"
)

// Transfer 库存转移记录（追加型审计实体）
// 创建即生效：同一事务内扣减药品全局库存并落审计行；
// 只记录来源/目的科室，不维护科室级库存台账；
// TransferDate是列表接口的游标键
type Transfer struct {
	ID              uint
	DrugID          uint
	SourceWard      string
	DestinationWard string
	Quantity        int
	ActorID         uint
	TransferDate    time.Time

	Drug  *drug.Drug
	Actor *user.User
}

// NewTransfer 创建转移记录（工厂方法）
func NewTransfer(drugID uint, sourceWard, destinationWard string, quantity int, actorID uint) *Transfer {
	return &Transfer{
		DrugID:          drugID,
		SourceWard:      sourceWard,
		DestinationWard: destinationWard,
		Quantity:        quantity,
		ActorID:         actorID,
		TransferDate:    time.Now(),
	}
}

// Validate 校验转移参数
// 数量必须为正，来源与目的科室必须不同
func (t *Transfer) Validate() error {
	if t.SourceWard == "" || t.DestinationWard == "" {
		return ErrInvalidTransfer
	}
	if t.SourceWard == t.DestinationWard {
		return ErrSameWard
	}
	if t.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}
