package domain

import "time"

// Clock отдаёт текущее время. Проверки окна акции никогда не читают
// wall-clock неявно: "сейчас" всегда приходит через этот порт, что делает
// расчёт цен детерминированным в тестах.
type Clock interface {
	Now() time.Time
}

// SystemClock — Clock поверх time.Now.
type SystemClock struct{}

// Now возвращает текущее системное время в UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock — Clock с неподвижным временем для тестов.
type FixedClock struct {
	At time.Time
}

// Now возвращает зафиксированный момент времени.
func (c FixedClock) Now() time.Time {
	return c.At
}
