package clock

import "time"

// Clock отдаёт текущее время. Интерфейс внедряется в сервисы и
// планировщик, чтобы проверки дедлайнов были тестируемыми.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// System возвращает часы на основе time.Now.
func System() Clock {
	return systemClock{}
}
