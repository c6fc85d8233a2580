package service

// NormalizeCPF strips everything but digits, so "529.982.247-25" and
// "52998224725" key the same customer.
func NormalizeCPF(cpf string) string {
	out := make([]byte, 0, len(cpf))
	for i := 0; i < len(cpf); i++ {
		if cpf[i] >= '0' && cpf[i] <= '9' {
			out = append(out, cpf[i])
		}
	}
	return string(out)
}

// IsValidCPF checks the CPF check digits after normalization. Eleven equal
// digits pass the arithmetic but are reserved values, so they are rejected.
func IsValidCPF(cpf string) bool {
	cpf = NormalizeCPF(cpf)
	if len(cpf) != 11 {
		return false
	}

	allSame := true
	for i := 1; i < 11; i++ {
		if cpf[i] != cpf[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	if checkDigit(cpf, 9) != int(cpf[9]-'0') {
		return false
	}
	return checkDigit(cpf, 10) == int(cpf[10]-'0')
}

func checkDigit(cpf string, length int) int {
	sum := 0
	for i := 0; i < length; i++ {
		sum += int(cpf[i]-'0') * (length + 1 - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}
