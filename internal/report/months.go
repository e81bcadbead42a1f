package report

import (
	"fmt"
	"time"
)

var monthNames = [...]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

var monthShort = [...]string{
	"янв", "фев", "мар", "апр", "май", "июн",
	"июл", "авг", "сен", "окт", "ноя", "дек",
}

// MonthName renders "Март 2024".
func MonthName(year int, month time.Month) string {
	if month < time.January || month > time.December {
		return fmt.Sprintf("%02d.%d", int(month), year)
	}
	return fmt.Sprintf("%s %d", monthNames[month-1], year)
}

// ShortMonthName renders "мар 2024".
func ShortMonthName(year int, month time.Month) string {
	if month < time.January || month > time.December {
		return fmt.Sprintf("%02d.%d", int(month), year)
	}
	return fmt.Sprintf("%s %d", monthShort[month-1], year)
}
