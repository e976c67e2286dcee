package ntp

import "time"

// UnixEraOffset: секунды между 1900-01-01 и 1970-01-01 (70 лет + 17 високосных дней)
const UnixEraOffset int64 = 2_208_988_800

const eraLength int64 = 1 << 32

// Timestamp: 64-битная NTP метка (секунды с 1900 + дробная часть в единицах 2^-32 с)
type Timestamp struct {
	Seconds  uint32
	Fraction uint32
}

// TimestampFromUnixMs переводит миллисекунды с 1970 в NTP метку.
// Дробная часть округляется вверх, чтобы обратное преобразование (с усечением) вернуло то же значение.
func TimestampFromUnixMs(ms int64) Timestamp {
	sec := floorDiv(ms, 1000)
	msec := ms - sec*1000
	frac := (uint64(msec)<<32 + 999) / 1000
	return Timestamp{
		Seconds:  uint32(sec + UnixEraOffset),
		Fraction: uint32(frac),
	}
}

// TimestampFromTime переводит time.Time в NTP метку с наносекундной точностью
func TimestampFromTime(t time.Time) Timestamp {
	frac := (uint64(t.Nanosecond())<<32 + uint64(time.Second) - 1) / uint64(time.Second)
	return Timestamp{
		Seconds:  uint32(t.Unix() + UnixEraOffset),
		Fraction: uint32(frac),
	}
}

// IsZero: метка из одних нулей (сервер не заполнил поле)
func (ts Timestamp) IsZero() bool {
	return ts.Seconds == 0 && ts.Fraction == 0
}

// UnixMs возвращает миллисекунды с 1970. Дробная часть усекается до миллисекунды.
//
// Поле секунд переполняется 2036-02-07; по RFC 4330 значения со сброшенным старшим битом
// относятся к эре 1, так что покрывается диапазон 1968–2104.
func (ts Timestamp) UnixMs() int64 {
	sec := int64(ts.Seconds)
	if ts.Seconds&0x80000000 == 0 {
		sec += eraLength
	}
	return (sec-UnixEraOffset)*1000 + int64(uint64(ts.Fraction) * 1000 >> 32)
}

// Time возвращает метку как time.Time (UTC)
func (ts Timestamp) Time() time.Time {
	sec := int64(ts.Seconds)
	if ts.Seconds&0x80000000 == 0 {
		sec += eraLength
	}
	nsec := int64(uint64(ts.Fraction) * uint64(time.Second) >> 32)
	return time.Unix(sec-UnixEraOffset, nsec).UTC()
}

func (ts Timestamp) uint64() uint64 {
	return uint64(ts.Seconds)<<32 | uint64(ts.Fraction)
}

func timestampFromUint64(v uint64) Timestamp {
	return Timestamp{Seconds: uint32(v >> 32), Fraction: uint32(v)}
}

// Short: 32-битное NTP значение в формате 16.16 (root delay, root dispersion)
type Short uint32

// Duration переводит 16.16 в time.Duration
func (s Short) Duration() time.Duration {
	return time.Duration(uint64(s) * uint64(time.Second) >> 16)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
