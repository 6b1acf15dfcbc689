// Package pagination 提供游标分页（keyset pagination）的通用支持
//
// 与OFFSET分页不同，游标分页用"上一页最后一行的索引键"定位下一页：
// WHERE (key, id) < (cursor_key, cursor_id) ORDER BY key DESC, id DESC LIMIT n
// 翻页成本与深度无关，且已返回键区间之外的并发写入不影响正确性
package pagination

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/weihan/medstock/pkg/errors"
)

// Kind 游标键类型
type Kind string

const (
	KindCreatedAt Kind = "created_at" // 创建时间降序
	KindID        Kind = "id"         // 主键升序
	KindName      Kind = "name"       // 名称升序（药品目录）
	KindDate      Kind = "date"       // 业务日期降序（转移记录）
)

// ErrInvalidCursor 游标解析失败
var ErrInvalidCursor = apperrors.New(apperrors.ErrCodeInvalidCursor, "分页游标不合法")

// Cursor 不透明游标
// Kind标识排序键，Value是最后一行的键值（时间用UnixNano，名称用原文），
// ID是最后一行的主键，与排序键组成复合键做并列破除：排序键不唯一时
// （同一毫秒的created_at、重名药品），单独比较排序键会漏掉并列行
// 客户端拿到的是base64编码串，不应解析其内容
type Cursor struct {
	Kind  Kind
	Value string
	ID    uint
}

// Encode 编码为不透明字符串
func (c Cursor) Encode() string {
	raw := string(c.Kind) + ":" + c.Value + ":" + strconv.FormatUint(uint64(c.ID), 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode 解析客户端回传的游标
// 空串表示第一页，返回零值Cursor
func Decode(s string, want Kind) (Cursor, error) {
	if s == "" {
		return Cursor{Kind: want}, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 3 || parts[1] == "" {
		return Cursor{}, ErrInvalidCursor
	}
	// 游标必须与本次请求的排序键一致，否则过滤条件会错位
	if Kind(parts[0]) != want {
		return Cursor{}, ErrInvalidCursor
	}
	id, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	return Cursor{Kind: Kind(parts[0]), Value: parts[1], ID: uint(id)}, nil
}

// IsZero 是否为第一页（无游标）
func (c Cursor) IsZero() bool {
	return c.Value == ""
}

// Time 解析时间类型的键值
func (c Cursor) Time() (time.Time, error) {
	nanos, err := strconv.ParseInt(c.Value, 10, 64)
	if err != nil {
		return time.Time{}, ErrInvalidCursor
	}
	return time.Unix(0, nanos), nil
}

// Uint 解析主键类型的键值
func (c Cursor) Uint() (uint, error) {
	id, err := strconv.ParseUint(c.Value, 10, 64)
	if err != nil {
		return 0, ErrInvalidCursor
	}
	return uint(id), nil
}

// TimeCursor 以时间键构建复合游标
func TimeCursor(kind Kind, t time.Time, id uint) Cursor {
	return Cursor{Kind: kind, Value: strconv.FormatInt(t.UnixNano(), 10), ID: id}
}

// IDCursor 以主键构建游标（主键唯一，无需额外的并列破除键）
func IDCursor(id uint) Cursor {
	return Cursor{Kind: KindID, Value: strconv.FormatUint(uint64(id), 10), ID: id}
}

// StringCursor 以字符串键构建复合游标
func StringCursor(kind Kind, v string, id uint) Cursor {
	return Cursor{Kind: kind, Value: v, ID: id}
}

// Trim 裁剪"多取一行"的查询结果
// 仓储层按limit+1取数：多出一行说明还有下一页，裁掉后返回
// 这样无需额外的COUNT查询即可判断has_next
func Trim[T any](items []T, limit int) ([]T, bool) {
	if len(items) > limit {
		return items[:limit], true
	}
	return items, false
}

// NormalizeLimit 规范化页大小
func NormalizeLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
