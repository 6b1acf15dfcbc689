package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 集成测试辅助工具
// 需要先启动完整环境（MySQL、Redis、API服务），运行方式：
//   go test -v ./test/integration/...

const (
	// BaseURL API基础URL
	BaseURL = "http://localhost:8080/api/v1"
	// Timeout HTTP请求超时时间
	Timeout = 10 * time.Second
)

// Response 统一响应结构
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// UserData 注册响应数据
type UserData struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// LoginData 登录响应数据
type LoginData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// DrugData 药品响应数据
type DrugData struct {
	ID                uint   `json:"id"`
	Name              string `json:"name"`
	Form              string `json:"form"`
	Strength          string `json:"strength"`
	CurrentStock      int    `json:"current_stock"`
	LowStockThreshold int    `json:"low_stock_threshold"`
	IsLowStock        bool   `json:"is_low_stock"`
}

// DrugListData 药品目录响应数据
type DrugListData struct {
	Items      []DrugData `json:"items"`
	NextCursor string     `json:"next_cursor"`
	HasNext    bool       `json:"has_next"`
}

// OrderData 医嘱响应数据
type OrderData struct {
	ID          uint   `json:"id"`
	PatientName string `json:"patient_name"`
	Dosage      int    `json:"dosage"`
	Status      string `json:"status"`
}

// FulfillData 履约响应数据
type FulfillData struct {
	OrderID        uint   `json:"order_id"`
	DrugID         uint   `json:"drug_id"`
	RemainingStock int    `json:"remaining_stock"`
	Status         string `json:"status"`
}

// TransferData 库存转移响应数据
type TransferData struct {
	TransferID      uint   `json:"transfer_id"`
	DrugID          uint   `json:"drug_id"`
	SourceWard      string `json:"source_ward"`
	DestinationWard string `json:"destination_ward"`
	Quantity        int    `json:"quantity"`
	RemainingStock  int    `json:"remaining_stock"`
}

// doJSON 发送带JSON体的请求并解析响应
func doJSON(t *testing.T, method, url string, data interface{}, token string) *Response {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		require.NoError(t, err, "JSON序列化失败")
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err, "创建HTTP请求失败")

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: Timeout}
	resp, err := client.Do(req)
	require.NoError(t, err, "发送HTTP请求失败")
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")

	var result Response
	err = json.Unmarshal(raw, &result)
	require.NoError(t, err, "解析JSON响应失败: %s", string(raw))

	return &result
}

// tryPostJSON 发送POST请求，出错返回error而不中断测试
// require系列会在失败goroutine里调用FailNow，并发场景必须用本函数
func tryPostJSON(url string, data interface{}, token string) (*Response, error) {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result Response
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("解析JSON响应失败: %s", string(raw))
	}

	return &result, nil
}

// PostJSON 发送POST请求并解析JSON响应
func PostJSON(t *testing.T, url string, data interface{}, token string) *Response {
	return doJSON(t, http.MethodPost, url, data, token)
}

// PutJSON 发送PUT请求并解析JSON响应
func PutJSON(t *testing.T, url string, data interface{}, token string) *Response {
	return doJSON(t, http.MethodPut, url, data, token)
}

// GetJSON 发送GET请求并解析JSON响应
func GetJSON(t *testing.T, url string, token string) *Response {
	return doJSON(t, http.MethodGet, url, nil, token)
}

// GenerateTestEmail 生成唯一的测试邮箱
func GenerateTestEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@test.com", prefix, testNonce())
}

// testNonce 生成唯一后缀，避免重复运行时的数据冲突
func testNonce() int64 {
	return time.Now().UnixNano()
}

// RegisterTestUser 注册指定角色的测试用户并返回Token
func RegisterTestUser(t *testing.T, prefix, role string) (userID uint, token string) {
	email := GenerateTestEmail(prefix)
	registerReq := map[string]string{
		"email":    email,
		"password": "Test1234",
		"name":     "测试" + role,
		"role":     role,
	}

	registerResp := PostJSON(t, BaseURL+"/users/register", registerReq, "")
	require.Equal(t, 0, registerResp.Code, "注册失败: %s", registerResp.Message)

	var userData UserData
	require.NoError(t, json.Unmarshal(registerResp.Data, &userData), "解析注册响应失败")

	loginReq := map[string]string{
		"email":    email,
		"password": "Test1234",
	}

	loginResp := PostJSON(t, BaseURL+"/users/login", loginReq, "")
	require.Equal(t, 0, loginResp.Code, "登录失败: %s", loginResp.Message)

	var loginData LoginData
	require.NoError(t, json.Unmarshal(loginResp.Data, &loginData), "解析登录响应失败")

	return userData.ID, loginData.AccessToken
}

// CreateTestDrug 录入测试药品并返回药品ID（需要药师Token）
func CreateTestDrug(t *testing.T, token string, stock, threshold int) uint {
	drugReq := map[string]interface{}{
		"name":                fmt.Sprintf("测试药品_%d", time.Now().UnixNano()),
		"form":                "片剂",
		"strength":            "100mg",
		"initial_stock":       stock,
		"low_stock_threshold": threshold,
	}

	drugResp := PostJSON(t, BaseURL+"/drugs", drugReq, token)
	require.Equal(t, 0, drugResp.Code, "录入药品失败: %s", drugResp.Message)

	var drugData DrugData
	require.NoError(t, json.Unmarshal(drugResp.Data, &drugData), "解析药品响应失败")

	return drugData.ID
}

// CreateTestOrder 开立测试医嘱并返回医嘱ID（需要医生Token）
func CreateTestOrder(t *testing.T, token string, drugID uint, dosage int) uint {
	orderReq := map[string]interface{}{
		"patient_name": "集成测试患者",
		"drug_id":      drugID,
		"dosage":       dosage,
	}

	orderResp := PostJSON(t, BaseURL+"/orders", orderReq, token)
	require.Equal(t, 0, orderResp.Code, "开立医嘱失败: %s", orderResp.Message)

	var orderData OrderData
	require.NoError(t, json.Unmarshal(orderResp.Data, &orderData), "解析医嘱响应失败")

	return orderData.ID
}
