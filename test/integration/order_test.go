package integration

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 医嘱与履约集成测试
// 覆盖开立、履约、批量履约、停用、MAR看板与角色限制的完整流程

// TestOrderCreate 测试开立医嘱
func TestOrderCreate(t *testing.T) {
	_, pharmacistToken := RegisterTestUser(t, "ph_order", "pharmacist")
	_, doctorToken := RegisterTestUser(t, "doc_order", "doctor")
	drugID := CreateTestDrug(t, pharmacistToken, 100, 10)

	t.Run("医生开立医嘱", func(t *testing.T) {
		orderID := CreateTestOrder(t, doctorToken, drugID, 2)
		assert.NotZero(t, orderID)
	})

	t.Run("护士无权开立", func(t *testing.T) {
		_, nurseToken := RegisterTestUser(t, "nurse_order", "nurse")

		resp := PostJSON(t, BaseURL+"/orders", map[string]interface{}{
			"patient_name": "越权患者",
			"drug_id":      drugID,
			"dosage":       1,
		}, nurseToken)
		assert.NotEqual(t, 0, resp.Code, "护士开立医嘱应该被拒绝")
	})

	t.Run("不存在的药品应失败", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/orders", map[string]interface{}{
			"patient_name": "测试患者",
			"drug_id":      99999999,
			"dosage":       1,
		}, doctorToken)
		assert.NotEqual(t, 0, resp.Code, "不存在的药品应该失败")
	})
}

// TestOrderFulfill 测试单笔履约
func TestOrderFulfill(t *testing.T) {
	_, pharmacistToken := RegisterTestUser(t, "ph_fulfill", "pharmacist")
	_, doctorToken := RegisterTestUser(t, "doc_fulfill", "doctor")
	_, nurseToken := RegisterTestUser(t, "nurse_fulfill", "nurse")

	t.Run("正常履约扣库存", func(t *testing.T) {
		drugID := CreateTestDrug(t, pharmacistToken, 10, 2)
		orderID := CreateTestOrder(t, doctorToken, drugID, 3)

		resp := PostJSON(t, fmt.Sprintf("%s/orders/%d/fulfill", BaseURL, orderID), nil, nurseToken)
		require.Equal(t, 0, resp.Code, "履约失败: %s", resp.Message)

		var data FulfillData
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, "completed", data.Status)
		assert.Equal(t, 7, data.RemainingStock, "库存应从10扣至7")
	})

	t.Run("重复履约应失败", func(t *testing.T) {
		drugID := CreateTestDrug(t, pharmacistToken, 10, 2)
		orderID := CreateTestOrder(t, doctorToken, drugID, 1)

		resp1 := PostJSON(t, fmt.Sprintf("%s/orders/%d/fulfill", BaseURL, orderID), nil, nurseToken)
		require.Equal(t, 0, resp1.Code, "第一次履约应成功")

		resp2 := PostJSON(t, fmt.Sprintf("%s/orders/%d/fulfill", BaseURL, orderID), nil, nurseToken)
		assert.NotEqual(t, 0, resp2.Code, "重复履约应该失败")
	})

	t.Run("库存不足应失败且状态不变", func(t *testing.T) {
		drugID := CreateTestDrug(t, pharmacistToken, 1, 0)
		orderID := CreateTestOrder(t, doctorToken, drugID, 5)

		resp := PostJSON(t, fmt.Sprintf("%s/orders/%d/fulfill", BaseURL, orderID), nil, nurseToken)
		assert.NotEqual(t, 0, resp.Code, "库存不足应该失败")

		// 医嘱仍为active，可在补货后再次履约
		PutJSON(t, fmt.Sprintf("%s/drugs/%d/stock", BaseURL, drugID),
			map[string]int{"stock": 10}, pharmacistToken)

		resp2 := PostJSON(t, fmt.Sprintf("%s/orders/%d/fulfill", BaseURL, orderID), nil, nurseToken)
		assert.Equal(t, 0, resp2.Code, "补货后应可履约: %s", resp2.Message)
	})

	t.Run("医生无权履约", func(t *testing.T) {
		drugID := CreateTestDrug(t, pharmacistToken, 10, 2)
		orderID := CreateTestOrder(t, doctorToken, drugID, 1)

		resp := PostJSON(t, fmt.Sprintf("%s/orders/%d/fulfill", BaseURL, orderID), nil, doctorToken)
		assert.NotEqual(t, 0, resp.Code, "医生履约应该被拒绝")
	})
}

// TestOrderFulfillBulk 测试批量履约
func TestOrderFulfillBulk(t *testing.T) {
	_, pharmacistToken := RegisterTestUser(t, "ph_bulk", "pharmacist")
	_, doctorToken := RegisterTestUser(t, "doc_bulk", "doctor")
	_, nurseToken := RegisterTestUser(t, "nurse_bulk", "nurse")

	t.Run("全部成功", func(t *testing.T) {
		drugID := CreateTestDrug(t, pharmacistToken, 10, 2)
		order1 := CreateTestOrder(t, doctorToken, drugID, 2)
		order2 := CreateTestOrder(t, doctorToken, drugID, 3)

		resp := PostJSON(t, BaseURL+"/orders/fulfill-bulk", map[string]interface{}{
			"order_ids": []uint{order1, order2},
		}, nurseToken)
		require.Equal(t, 0, resp.Code, "批量履约失败: %s", resp.Message)

		var data struct {
			Results []FulfillData `json:"results"`
			Count   int           `json:"count"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, 2, data.Count)
	})

	t.Run("任一失败整批回滚", func(t *testing.T) {
		drugID := CreateTestDrug(t, pharmacistToken, 3, 0)
		order1 := CreateTestOrder(t, doctorToken, drugID, 2)
		order2 := CreateTestOrder(t, doctorToken, drugID, 2) // 库存只够一单

		resp := PostJSON(t, BaseURL+"/orders/fulfill-bulk", map[string]interface{}{
			"order_ids": []uint{order1, order2},
		}, nurseToken)
		assert.NotEqual(t, 0, resp.Code, "超量批次应该整批失败")

		// 第一单应已回滚为active，单独履约成功
		resp2 := PostJSON(t, fmt.Sprintf("%s/orders/%d/fulfill", BaseURL, order1), nil, nurseToken)
		assert.Equal(t, 0, resp2.Code, "回滚后的医嘱应可单独履约: %s", resp2.Message)
	})

	t.Run("空列表应失败", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/orders/fulfill-bulk", map[string]interface{}{
			"order_ids": []uint{},
		}, nurseToken)
		assert.NotEqual(t, 0, resp.Code, "空列表应该被拒绝")
	})
}

// TestOrderDiscontinue 测试停用医嘱
func TestOrderDiscontinue(t *testing.T) {
	_, pharmacistToken := RegisterTestUser(t, "ph_dc", "pharmacist")
	_, doctorToken := RegisterTestUser(t, "doc_dc", "doctor")
	_, nurseToken := RegisterTestUser(t, "nurse_dc", "nurse")

	drugID := CreateTestDrug(t, pharmacistToken, 10, 2)
	orderID := CreateTestOrder(t, doctorToken, drugID, 2)

	resp := PutJSON(t, fmt.Sprintf("%s/orders/%d/discontinue", BaseURL, orderID), nil, doctorToken)
	require.Equal(t, 0, resp.Code, "停用失败: %s", resp.Message)

	// 停用后不可履约
	fulfillResp := PostJSON(t, fmt.Sprintf("%s/orders/%d/fulfill", BaseURL, orderID), nil, nurseToken)
	assert.NotEqual(t, 0, fulfillResp.Code, "已停用医嘱不应可履约")
}

// TestMARDashboard 测试MAR看板
func TestMARDashboard(t *testing.T) {
	_, pharmacistToken := RegisterTestUser(t, "ph_mar", "pharmacist")
	_, doctorToken := RegisterTestUser(t, "doc_mar", "doctor")

	drugID := CreateTestDrug(t, pharmacistToken, 10, 2)
	CreateTestOrder(t, doctorToken, drugID, 2)

	resp := GetJSON(t, BaseURL+"/orders/mar", doctorToken)
	require.Equal(t, 0, resp.Code, "看板查询失败: %s", resp.Message)

	var data struct {
		Patients []struct {
			PatientName string `json:"patient_name"`
		} `json:"patients"`
		Summary struct {
			PatientCount int `json:"patient_count"`
			ActiveOrders int `json:"active_orders"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))

	assert.Positive(t, data.Summary.ActiveOrders, "应至少有1条执行中医嘱")
	assert.NotEmpty(t, data.Patients, "应至少有1个患者分组")
}

// TestOrderListByDoctor 测试按医生查询医嘱
func TestOrderListByDoctor(t *testing.T) {
	_, pharmacistToken := RegisterTestUser(t, "ph_bydoc", "pharmacist")
	doctorID, doctorToken := RegisterTestUser(t, "doc_bydoc", "doctor")

	drugID := CreateTestDrug(t, pharmacistToken, 50, 5)
	CreateTestOrder(t, doctorToken, drugID, 1)
	CreateTestOrder(t, doctorToken, drugID, 2)

	resp := GetJSON(t, fmt.Sprintf("%s/orders/by-doctor/%d", BaseURL, doctorID), doctorToken)
	require.Equal(t, 0, resp.Code, "按医生查询失败: %s", resp.Message)

	var data struct {
		DoctorID   uint   `json:"doctor_id"`
		DoctorName string `json:"doctor_name"`
		Items      []struct {
			ID uint `json:"id"`
		} `json:"items"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))

	assert.Equal(t, doctorID, data.DoctorID)
	assert.NotEmpty(t, data.DoctorName)
	assert.Equal(t, 2, data.Count)
	assert.Len(t, data.Items, 2)
}

// TestOrderList 测试医嘱列表游标分页
func TestOrderList(t *testing.T) {
	_, pharmacistToken := RegisterTestUser(t, "ph_olist", "pharmacist")
	_, doctorToken := RegisterTestUser(t, "doc_olist", "doctor")

	drugID := CreateTestDrug(t, pharmacistToken, 100, 10)
	for i := 0; i < 3; i++ {
		CreateTestOrder(t, doctorToken, drugID, 1)
	}

	resp := GetJSON(t, BaseURL+"/orders?limit=2", doctorToken)
	require.Equal(t, 0, resp.Code, "列表查询失败: %s", resp.Message)

	var data struct {
		Items []struct {
			ID     uint   `json:"id"`
			Status string `json:"status"`
			Drug   *struct {
				Name string `json:"name"`
			} `json:"drug"`
		} `json:"items"`
		NextCursor string `json:"next_cursor"`
		HasNext    bool   `json:"has_next"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))

	assert.Len(t, data.Items, 2)
	assert.True(t, data.HasNext)
	require.NotEmpty(t, data.Items[0].Drug, "列表项应装配药品信息")
}
