// Package numerology пифагорейская нумерология: детерминированный расчёт чисел по дате рождения и имени.
package numerology

import (
	"sort"
	"strings"
	"time"
	"unicode"
)

var letterValues = map[rune]int{
	'a': 1, 'b': 2, 'c': 3, 'd': 4, 'e': 5, 'f': 6, 'g': 7, 'h': 8, 'i': 9,
	'j': 1, 'k': 2, 'l': 3, 'm': 4, 'n': 5, 'o': 6, 'p': 7, 'q': 8, 'r': 9,
	's': 1, 't': 2, 'u': 3, 'v': 4, 'w': 5, 'x': 6, 'y': 7, 'z': 8,
}

var masterNumbers = map[int]bool{11: true, 22: true, 33: true}

var karmicDebtNumbers = map[int]bool{13: true, 14: true, 16: true, 19: true}

// Result все числа для одного человека
type Result struct {
	LifePath       int
	Destiny        int
	SoulUrge       int
	Personality    int
	BirthDay       int
	Maturity       int
	PersonalYear   int
	BirthdayNumber int
	KarmicDebt     []int
	NameUsed       string
}

// Compute считает все числа; today нужен только для личного года
func Compute(fullName string, birthDate, today time.Time) Result {
	lifePath := LifePath(birthDate)
	destiny := Destiny(fullName)

	return Result{
		LifePath:       lifePath,
		Destiny:        destiny,
		SoulUrge:       SoulUrge(fullName),
		Personality:    Personality(fullName),
		BirthDay:       birthDate.Day(),
		Maturity:       Reduce(lifePath+destiny, true),
		PersonalYear:   PersonalYear(birthDate, today),
		BirthdayNumber: Reduce(birthDate.Day(), true),
		KarmicDebt:     KarmicDebt(birthDate, fullName),
		NameUsed:       strings.TrimSpace(fullName),
	}
}

// Reduce сворачивает число до одной цифры; с keepMaster 11, 22 и 33 не сворачиваются
func Reduce(n int, keepMaster bool) int {
	for n > 9 {
		if keepMaster && masterNumbers[n] {
			return n
		}
		n = digitSum(n)
	}
	return n
}

func digitSum(n int) int {
	sum := 0
	for n > 0 {
		sum += n % 10
		n /= 10
	}
	return sum
}

// LifePath день, месяц и год сворачиваются отдельно, затем сумма
func LifePath(birthDate time.Time) int {
	return Reduce(lifePathTotal(birthDate), true)
}

func lifePathTotal(birthDate time.Time) int {
	return Reduce(birthDate.Day(), true) + Reduce(int(birthDate.Month()), true) + Reduce(birthDate.Year(), true)
}

// Destiny число выражения по всем буквам имени
func Destiny(name string) int {
	return Reduce(lettersSum(name, func(int, []rune) bool { return true }), true)
}

// SoulUrge по гласным, включая Y в роли гласной
func SoulUrge(name string) int {
	return Reduce(lettersSum(name, isVowelAt), true)
}

// Personality по согласным
func Personality(name string) int {
	return Reduce(lettersSum(name, func(i int, runes []rune) bool { return !isVowelAt(i, runes) }), true)
}

// PersonalYear тема текущего года, мастер-числа не сохраняются
func PersonalYear(birthDate, today time.Time) int {
	total := Reduce(int(birthDate.Month()), false) + Reduce(birthDate.Day(), false) + Reduce(today.Year(), false)
	return Reduce(total, false)
}

// KarmicDebt числа 13, 14, 16, 19 в дне рождения и в промежуточных суммах жизненного пути и имени
func KarmicDebt(birthDate time.Time, name string) []int {
	found := make(map[int]bool)

	if day := birthDate.Day(); karmicDebtNumbers[day] {
		found[day] = true
	}

	for total := lifePathTotal(birthDate); total > 9 && !masterNumbers[total]; total = digitSum(total) {
		if karmicDebtNumbers[total] {
			found[total] = true
		}
	}

	for total := lettersSum(name, func(int, []rune) bool { return true }); total > 9; total = digitSum(total) {
		if karmicDebtNumbers[total] {
			found[total] = true
		}
	}

	debts := make([]int, 0, len(found))
	for n := range found {
		debts = append(debts, n)
	}
	sort.Ints(debts)
	return debts
}

func lettersSum(name string, include func(i int, runes []rune) bool) int {
	runes := []rune(strings.ToLower(name))
	sum := 0
	for i, r := range runes {
		v, ok := letterValues[r]
		if !ok || !include(i, runes) {
			continue
		}
		sum += v
	}
	return sum
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

func isVowelAt(i int, runes []rune) bool {
	r := runes[i]
	if isVowel(r) {
		return true
	}
	if r != 'y' {
		return false
	}
	return yIsVowel(i, runes)
}

// yIsVowel Y перед гласной согласная (Yes, Mayor), в конце слова гласная (Mary),
// между согласными гласная (Lynn), в остальных случаях согласная
func yIsVowel(i int, runes []rune) bool {
	hasNext := i+1 < len(runes) && unicode.IsLetter(runes[i+1])
	if hasNext && isVowel(runes[i+1]) {
		return false
	}
	if !hasNext {
		return true
	}
	consonantBefore := i > 0 && unicode.IsLetter(runes[i-1]) && !isVowel(runes[i-1])
	return consonantBefore
}
