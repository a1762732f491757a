package service

import (
	"crypto/rand"
	"math/big"
)

const (
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// InviteCodeLength 邀请码固定长度
	InviteCodeLength = 8
)

var alphabetSize = big.NewInt(int64(len(inviteCodeAlphabet)))

// generateInviteCode 生成 8 位邀请码，每位在 36 个字符上均匀分布
// 唯一性由写入时的 SET NX 保证，这里不做检查
func generateInviteCode() (string, error) {
	b := make([]byte, InviteCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		b[i] = inviteCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// isValidInviteCode 长度为 8 且只含 A-Z0-9
func isValidInviteCode(code string) bool {
	if len(code) != InviteCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
