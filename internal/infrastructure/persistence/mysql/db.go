package mysql

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/weihan/medstock/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// GORM v2 + 连接池配置；开发环境打印SQL，生产环境静默
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.Database.DSN()

	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Println("✓ 数据库连接成功")

	// 开发环境自动迁移；生产环境应使用版本化迁移脚本
	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// autoMigrate 自动迁移表结构
// AutoMigrate只创建表、补充字段，不删除或修改现有字段
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&DrugModel{},
		&OrderModel{},
		&AdministrationModel{},
		&TransferModel{},
	)
}

// UserModel GORM用户模型
// infrastructure层的数据模型，与domain/user的领域实体由仓储负责互转
type UserModel struct {
	ID        uint           `gorm:"primaryKey"`
	Email     string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string         `gorm:"size:255;not null;comment:密码(bcrypt)"`
	Name      string         `gorm:"size:50;not null;comment:姓名"`
	Role      string         `gorm:"index;size:20;not null;comment:角色(doctor/nurse/pharmacist/admin)"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// DrugModel GORM药品模型
// 设计说明:
// 1. 名称+剂型+规格建复合唯一索引，防止重复建档
// 2. current_stock带CHECK约束兜底非负（权威校验在行锁内完成）
// 3. 不做软删除：被医嘱引用期间不删除由业务策略保证，库存行保持永久
type DrugModel struct {
	ID                uint      `gorm:"primaryKey"`
	Name              string    `gorm:"uniqueIndex:idx_drug_triple;size:100;not null;comment:药品名称"`
	Form              string    `gorm:"uniqueIndex:idx_drug_triple;size:50;not null;comment:剂型"`
	Strength          string    `gorm:"uniqueIndex:idx_drug_triple;size:50;not null;comment:规格"`
	CurrentStock      int       `gorm:"not null;default:0;check:current_stock >= 0;comment:当前库存"`
	LowStockThreshold int       `gorm:"not null;default:0;comment:低库存阈值"`
	CreatedAt         time.Time `gorm:"comment:创建时间"`
	UpdatedAt         time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (DrugModel) TableName() string {
	return "drugs"
}

// OrderModel GORM医嘱模型
// 设计说明:
// 1. created_at建索引，是游标分页的主键外排序键
// 2. Drug/Doctor是多对一关联（列表查询JOIN取回）
// 3. Administrations是一对多关联（列表查询按键批量取回）
type OrderModel struct {
	ID          uint      `gorm:"primaryKey"`
	PatientName string    `gorm:"index;size:100;not null;comment:患者姓名"`
	DrugID      uint      `gorm:"index;not null;comment:药品ID"`
	DoctorID    uint      `gorm:"index;not null;comment:开立医生ID"`
	Dosage      int       `gorm:"not null;comment:剂量(消耗库存单位数)"`
	Status      int       `gorm:"index;type:tinyint;default:1;comment:状态(1执行中2已完成3已停用)"`
	CreatedAt   time.Time `gorm:"index;comment:创建时间(游标键)"`
	UpdatedAt   time.Time `gorm:"comment:更新时间"`

	Drug            DrugModel             `gorm:"foreignKey:DrugID"`
	Doctor          UserModel             `gorm:"foreignKey:DoctorID"`
	Administrations []AdministrationModel `gorm:"foreignKey:OrderID"`
}

// TableName 指定表名
func (OrderModel) TableName() string {
	return "medication_orders"
}

// AdministrationModel GORM给药记录模型
// 追加型审计表：无更新时间、无软删除；administration_time由插入时赋值
type AdministrationModel struct {
	ID                 uint      `gorm:"primaryKey"`
	OrderID            uint      `gorm:"index;not null;comment:医嘱ID"`
	NurseID            uint      `gorm:"index;not null;comment:执行护士ID"`
	AdministrationTime time.Time `gorm:"index;autoCreateTime;comment:给药时间(插入时赋值)"`

	Nurse UserModel `gorm:"foreignKey:NurseID"`
}

// TableName 指定表名
func (AdministrationModel) TableName() string {
	return "administrations"
}

// TransferModel GORM库存转移模型
// 追加型审计表；transfer_date建索引，是游标分页的排序键
type TransferModel struct {
	ID              uint      `gorm:"primaryKey"`
	DrugID          uint      `gorm:"index;not null;comment:药品ID"`
	SourceWard      string    `gorm:"size:50;not null;comment:来源科室"`
	DestinationWard string    `gorm:"size:50;not null;comment:目的科室"`
	Quantity        int       `gorm:"not null;comment:转移数量"`
	ActorID         uint      `gorm:"index;not null;comment:操作人ID"`
	TransferDate    time.Time `gorm:"index;autoCreateTime;comment:转移时间(游标键)"`

	Drug  DrugModel `gorm:"foreignKey:DrugID"`
	Actor UserModel `gorm:"foreignKey:ActorID"`
}

// TableName 指定表名
func (TransferModel) TableName() string {
	return "stock_transfers"
}
