// Package units 负责公制与英制之间的换算与展示格式。
// 内部统一以毫升、厘米、千克保存，展示单位在此推导。
package units

import (
	"fmt"
	"strconv"
)

// 换算系数与原应用保持一致，往返换算并非严格可逆。
const (
	MillilitersPerOunce = 29.5735
	OuncesPerMilliliter = 0.033814
	CentimetersPerInch  = 2.54
	KilogramsPerPound   = 0.453592
)

// RoundTripToleranceML 是 2500ml 目标经过一次公制→英制→公制换算后允许的误差。
const RoundTripToleranceML = 0.05

// System 表示单位制。
type System string

const (
	Metric   System = "metric"
	Imperial System = "imperial"
)

// SystemFor 根据 useMetric 返回对应单位制。
func SystemFor(useMetric bool) System {
	if useMetric {
		return Metric
	}
	return Imperial
}

// VolumeLabel 返回体积单位的缩写。
func (s System) VolumeLabel() string {
	if s == Imperial {
		return "oz"
	}
	return "ml"
}

// LengthLabel 返回身高单位的缩写。
func (s System) LengthLabel() string {
	if s == Imperial {
		return "in"
	}
	return "cm"
}

// WeightLabel 返回体重单位的缩写。
func (s System) WeightLabel() string {
	if s == Imperial {
		return "lb"
	}
	return "kg"
}

func OuncesToMilliliters(oz float64) float64 { return oz * MillilitersPerOunce }
func MillilitersToOunces(ml float64) float64 { return ml * OuncesPerMilliliter }
func InchesToCentimeters(in float64) float64 { return in * CentimetersPerInch }
func CentimetersToInches(cm float64) float64 { return cm / CentimetersPerInch }
func PoundsToKilograms(lb float64) float64   { return lb * KilogramsPerPound }
func KilogramsToPounds(kg float64) float64   { return kg / KilogramsPerPound }

// VolumeFromMilliliters 把毫升换算为 s 的展示单位。
func (s System) VolumeFromMilliliters(ml float64) float64 {
	if s == Imperial {
		return MillilitersToOunces(ml)
	}
	return ml
}

// VolumeToMilliliters 把 s 单位下的体积换算回毫升。
func (s System) VolumeToMilliliters(value float64) float64 {
	if s == Imperial {
		return OuncesToMilliliters(value)
	}
	return value
}

// FormatVolume 以 s 的展示单位格式化毫升值，例如 "250 ml" 或 "8.5 oz"。
func (s System) FormatVolume(ml float64) string {
	value := s.VolumeFromMilliliters(ml)
	precision := 0
	if s == Imperial {
		precision = 1
	}
	return fmt.Sprintf("%s %s", strconv.FormatFloat(value, 'f', precision, 64), s.VolumeLabel())
}
