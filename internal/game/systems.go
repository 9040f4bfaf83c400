package game

// System — один шаг конвейера симуляции. Системы вызываются строго
// в фиксированном порядке один раз за тик; порядок — требование
// корректности, а не конфигурация.
type System interface {
	Update(dt float32)
}
