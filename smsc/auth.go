package smsc

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/aaronwong1989/gosmsc/codec/smpp"
)

// Authenticator 校验 bind 请求，返回 bind_resp 的 command_status
type Authenticator interface {
	Authenticate(systemId string, password string) uint32
}

// CredentialAuthenticator 按配置的账号校验，密码可以是明文或 bcrypt 摘要
type CredentialAuthenticator map[string]string

func (c CredentialAuthenticator) Authenticate(systemId string, password string) uint32 {
	expect, ok := c[systemId]
	if !ok {
		return smpp.ESME_RINVSYSID
	}
	if isBcrypt(expect) {
		if bcrypt.CompareHashAndPassword([]byte(expect), []byte(password)) != nil {
			return smpp.ESME_RINVPASWD
		}
		return smpp.ESME_ROK
	}
	if expect != password {
		return smpp.ESME_RINVPASWD
	}
	return smpp.ESME_ROK
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// SelfAuthenticator system_id 与 password 相同即通过，未配置账号时使用
type SelfAuthenticator struct{}

func (SelfAuthenticator) Authenticate(systemId string, password string) uint32 {
	if systemId == "" {
		return smpp.ESME_RINVSYSID
	}
	if systemId != password {
		return smpp.ESME_RINVPASWD
	}
	return smpp.ESME_ROK
}

// AuthenticatorOf 有账号配置时按账号校验，否则退化为 SelfAuthenticator
func AuthenticatorOf(credentials map[string]string) Authenticator {
	if len(credentials) == 0 {
		return SelfAuthenticator{}
	}
	return CredentialAuthenticator(credentials)
}
