package integration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 用户模块集成测试
// 覆盖注册、登录、登出与角色校验的完整API流程

// TestUserRegister 测试用户注册
func TestUserRegister(t *testing.T) {
	t.Run("正常注册", func(t *testing.T) {
		email := GenerateTestEmail("nurse")
		registerReq := map[string]string{
			"email":    email,
			"password": "Test1234",
			"name":     "测试护士",
			"role":     "nurse",
		}

		resp := PostJSON(t, BaseURL+"/users/register", registerReq, "")
		assert.Equal(t, 0, resp.Code, "注册应该成功: %s", resp.Message)

		var data UserData
		require.NoError(t, json.Unmarshal(resp.Data, &data), "解析响应数据失败")

		assert.NotZero(t, data.ID, "用户ID应该大于0")
		assert.Equal(t, email, data.Email)
		assert.Equal(t, "nurse", data.Role)
	})

	t.Run("重复邮箱注册应失败", func(t *testing.T) {
		email := GenerateTestEmail("dup")
		registerReq := map[string]string{
			"email":    email,
			"password": "Test1234",
			"name":     "测试用户",
			"role":     "doctor",
		}

		resp1 := PostJSON(t, BaseURL+"/users/register", registerReq, "")
		require.Equal(t, 0, resp1.Code, "第一次注册应该成功")

		resp2 := PostJSON(t, BaseURL+"/users/register", registerReq, "")
		assert.NotEqual(t, 0, resp2.Code, "重复邮箱注册应该失败")
		assert.Contains(t, resp2.Message, "邮箱", "错误信息应该提示邮箱相关")
	})

	t.Run("非法角色应失败", func(t *testing.T) {
		registerReq := map[string]string{
			"email":    GenerateTestEmail("badrole"),
			"password": "Test1234",
			"name":     "测试用户",
			"role":     "janitor",
		}

		resp := PostJSON(t, BaseURL+"/users/register", registerReq, "")
		assert.NotEqual(t, 0, resp.Code, "非法角色应该失败")
	})

	t.Run("弱密码应失败", func(t *testing.T) {
		registerReq := map[string]string{
			"email":    GenerateTestEmail("weakpwd"),
			"password": "12345678", // 纯数字
			"name":     "测试用户",
			"role":     "nurse",
		}

		resp := PostJSON(t, BaseURL+"/users/register", registerReq, "")
		assert.NotEqual(t, 0, resp.Code, "弱密码应该失败")
	})
}

// TestUserLogin 测试登录与登出
func TestUserLogin(t *testing.T) {
	email := GenerateTestEmail("login")
	registerReq := map[string]string{
		"email":    email,
		"password": "Test1234",
		"name":     "测试医生",
		"role":     "doctor",
	}
	resp := PostJSON(t, BaseURL+"/users/register", registerReq, "")
	require.Equal(t, 0, resp.Code, "注册失败: %s", resp.Message)

	t.Run("正常登录", func(t *testing.T) {
		loginResp := PostJSON(t, BaseURL+"/users/login", map[string]string{
			"email":    email,
			"password": "Test1234",
		}, "")
		require.Equal(t, 0, loginResp.Code, "登录失败: %s", loginResp.Message)

		var data struct {
			User        UserData `json:"user"`
			AccessToken string   `json:"access_token"`
			ExpiresIn   int64    `json:"expires_in"`
		}
		require.NoError(t, json.Unmarshal(loginResp.Data, &data))

		assert.NotEmpty(t, data.AccessToken, "应返回访问令牌")
		assert.Positive(t, data.ExpiresIn, "应返回过期秒数")
		assert.Equal(t, email, data.User.Email)
	})

	t.Run("错误密码应失败", func(t *testing.T) {
		loginResp := PostJSON(t, BaseURL+"/users/login", map[string]string{
			"email":    email,
			"password": "Wrong1234",
		}, "")
		assert.NotEqual(t, 0, loginResp.Code, "错误密码应该登录失败")
	})

	t.Run("登出后令牌失效", func(t *testing.T) {
		_, token := RegisterTestUser(t, "logout", "nurse")

		logoutResp := PostJSON(t, BaseURL+"/users/logout", nil, token)
		require.Equal(t, 0, logoutResp.Code, "登出失败: %s", logoutResp.Message)

		// 黑名单中的令牌不能再访问受保护接口
		listResp := GetJSON(t, BaseURL+"/drugs", token)
		assert.NotEqual(t, 0, listResp.Code, "登出后的令牌应该被拒绝")
	})
}

// TestAuthRequired 未认证请求被拒绝
func TestAuthRequired(t *testing.T) {
	resp := GetJSON(t, BaseURL+"/drugs", "")
	assert.NotEqual(t, 0, resp.Code, "未携带令牌应该被拒绝")
}
