package integration

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 药品模块集成测试
// 覆盖录入、目录游标分页、库存调整、低库存清单与科室转移

// TestDrugCreate 测试药品录入与角色限制
func TestDrugCreate(t *testing.T) {
	_, pharmacistToken := RegisterTestUser(t, "ph_create", "pharmacist")

	t.Run("药师录入药品", func(t *testing.T) {
		drugID := CreateTestDrug(t, pharmacistToken, 100, 10)
		assert.NotZero(t, drugID)
	})

	t.Run("重复三元组应失败", func(t *testing.T) {
		name := fmt.Sprintf("重复药品_%d", testNonce())
		drugReq := map[string]interface{}{
			"name":                name,
			"form":                "片剂",
			"strength":            "100mg",
			"initial_stock":       10,
			"low_stock_threshold": 2,
		}

		resp1 := PostJSON(t, BaseURL+"/drugs", drugReq, pharmacistToken)
		require.Equal(t, 0, resp1.Code, "第一次录入应成功: %s", resp1.Message)

		resp2 := PostJSON(t, BaseURL+"/drugs", drugReq, pharmacistToken)
		assert.NotEqual(t, 0, resp2.Code, "相同名称+剂型+规格应该失败")
	})

	t.Run("护士无权录入", func(t *testing.T) {
		_, nurseToken := RegisterTestUser(t, "nurse_create", "nurse")

		drugReq := map[string]interface{}{
			"name":                fmt.Sprintf("越权药品_%d", testNonce()),
			"form":                "片剂",
			"strength":            "100mg",
			"initial_stock":       10,
			"low_stock_threshold": 2,
		}

		resp := PostJSON(t, BaseURL+"/drugs", drugReq, nurseToken)
		assert.NotEqual(t, 0, resp.Code, "护士录入药品应该被拒绝")
	})
}

// TestDrugList 测试目录游标分页
func TestDrugList(t *testing.T) {
	_, pharmacistToken := RegisterTestUser(t, "ph_list", "pharmacist")

	// 保证至少3条数据
	for i := 0; i < 3; i++ {
		CreateTestDrug(t, pharmacistToken, 50, 5)
	}

	t.Run("首页与翻页", func(t *testing.T) {
		resp := GetJSON(t, BaseURL+"/drugs?limit=2", pharmacistToken)
		require.Equal(t, 0, resp.Code, "查询失败: %s", resp.Message)

		var page1 DrugListData
		require.NoError(t, json.Unmarshal(resp.Data, &page1))
		assert.Len(t, page1.Items, 2)
		require.True(t, page1.HasNext, "应有下一页")
		require.NotEmpty(t, page1.NextCursor)

		// 用游标取下一页，不应与首页重叠
		resp2 := GetJSON(t, BaseURL+"/drugs?limit=2&cursor="+page1.NextCursor, pharmacistToken)
		require.Equal(t, 0, resp2.Code, "翻页失败: %s", resp2.Message)

		var page2 DrugListData
		require.NoError(t, json.Unmarshal(resp2.Data, &page2))
		require.NotEmpty(t, page2.Items)
		assert.NotEqual(t, page1.Items[0].ID, page2.Items[0].ID, "两页不应重叠")
	})

	t.Run("非法游标应失败", func(t *testing.T) {
		resp := GetJSON(t, BaseURL+"/drugs?cursor=!!!bad!!!", pharmacistToken)
		assert.NotEqual(t, 0, resp.Code, "非法游标应该被拒绝")
	})
}

// TestDrugStockUpdate 测试库存调整
func TestDrugStockUpdate(t *testing.T) {
	_, pharmacistToken := RegisterTestUser(t, "ph_stock", "pharmacist")
	drugID := CreateTestDrug(t, pharmacistToken, 100, 10)

	t.Run("盘点替换库存", func(t *testing.T) {
		resp := PutJSON(t, fmt.Sprintf("%s/drugs/%d/stock", BaseURL, drugID),
			map[string]int{"stock": 42}, pharmacistToken)
		require.Equal(t, 0, resp.Code, "调整库存失败: %s", resp.Message)

		var data DrugData
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, 42, data.CurrentStock)
	})

	t.Run("负库存应失败", func(t *testing.T) {
		resp := PutJSON(t, fmt.Sprintf("%s/drugs/%d/stock", BaseURL, drugID),
			map[string]int{"stock": -5}, pharmacistToken)
		assert.NotEqual(t, 0, resp.Code, "负库存应该被拒绝")
	})
}

// TestDrugLowStock 测试低库存清单
func TestDrugLowStock(t *testing.T) {
	_, pharmacistToken := RegisterTestUser(t, "ph_low", "pharmacist")

	// 库存3 <= 阈值5，必然出现在低库存清单
	lowID := CreateTestDrug(t, pharmacistToken, 3, 5)

	resp := GetJSON(t, BaseURL+"/drugs/low-stock", pharmacistToken)
	require.Equal(t, 0, resp.Code, "低库存查询失败: %s", resp.Message)

	var data struct {
		Items []DrugData `json:"items"`
		Count int        `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))

	found := false
	for _, d := range data.Items {
		if d.ID == lowID {
			found = true
			assert.True(t, d.IsLowStock)
		}
	}
	assert.True(t, found, "低库存药品应出现在清单中")
}

// TestDrugTransfer 测试科室间库存转移
func TestDrugTransfer(t *testing.T) {
	_, pharmacistToken := RegisterTestUser(t, "ph_transfer", "pharmacist")
	drugID := CreateTestDrug(t, pharmacistToken, 50, 5)

	t.Run("正常转移", func(t *testing.T) {
		resp := PostJSON(t, fmt.Sprintf("%s/drugs/%d/transfers", BaseURL, drugID),
			map[string]interface{}{
				"source_ward":      "中心药房",
				"destination_ward": "ICU",
				"quantity":         10,
			}, pharmacistToken)
		require.Equal(t, 0, resp.Code, "转移失败: %s", resp.Message)

		var data TransferData
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, 40, data.RemainingStock)
		assert.NotZero(t, data.TransferID)
	})

	t.Run("相同科室应失败", func(t *testing.T) {
		resp := PostJSON(t, fmt.Sprintf("%s/drugs/%d/transfers", BaseURL, drugID),
			map[string]interface{}{
				"source_ward":      "ICU",
				"destination_ward": "ICU",
				"quantity":         5,
			}, pharmacistToken)
		assert.NotEqual(t, 0, resp.Code, "相同科室转移应该被拒绝")
	})

	t.Run("超量转移应失败且库存不变", func(t *testing.T) {
		resp := PostJSON(t, fmt.Sprintf("%s/drugs/%d/transfers", BaseURL, drugID),
			map[string]interface{}{
				"source_ward":      "中心药房",
				"destination_ward": "ICU",
				"quantity":         10000,
			}, pharmacistToken)
		assert.NotEqual(t, 0, resp.Code, "超量转移应该失败")
	})
}
