package pkg

import (
	cryptoRand "crypto/rand"
	"math/big"
	"strings"
)

// EmailCodeLength 邮箱验证码位数
const EmailCodeLength = 6

// RandDigits 生成 n 位随机数字
func RandDigits(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	var b strings.Builder
	b.Grow(n)
	ten := big.NewInt(10)
	for range n {
		x, err := cryptoRand.Int(cryptoRand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + x.Int64()))
	}
	return b.String(), nil
}

func NewEmailCode() (string, error) {
	return RandDigits(EmailCodeLength)
}
