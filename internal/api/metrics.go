package api

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ServerMetrics отдаёт процессные показатели для /api/stats и
// /api/server/info: аптайм игрового сервера, память и CPU.
// Игровые счётчики (тики, комнаты, игроки) живут в prometheus.
type ServerMetrics struct {
	startedAt time.Time
	proc      *process.Process
}

func NewServerMetrics() *ServerMetrics {
	sm := &ServerMetrics{startedAt: time.Now()}
	// Ошибку глотаем: без хэндла процесса CPU пойдёт по системному пути
	sm.proc, _ = process.NewProcess(int32(os.Getpid()))
	return sm
}

// Uptime форматирует время с запуска сервера: "2д 3ч 7м 12с".
func (sm *ServerMetrics) Uptime() string {
	up := time.Since(sm.startedAt)
	d := int(up.Hours()) / 24
	h := int(up.Hours()) % 24
	m := int(up.Minutes()) % 60
	s := int(up.Seconds()) % 60

	switch {
	case d > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", d, h, m, s)
	case h > 0:
		return fmt.Sprintf("%dч %dм %dс", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dм %dс", m, s)
	default:
		return fmt.Sprintf("%dс", s)
	}
}

// MemoryMB возвращает текущий аллоцированный хип в мегабайтах.
func (sm *ServerMetrics) MemoryMB() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return float64(ms.Alloc) / 1024 / 1024
}

// ProcessCPU — загрузка CPU процессом сервера, в процентах.
func (sm *ServerMetrics) ProcessCPU() (float64, error) {
	if sm.proc != nil {
		if pct, err := sm.proc.CPUPercent(); err == nil {
			return pct, nil
		}
	}
	// запасной путь: короткий системный замер
	pcts, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(pcts) == 0 {
		return 0, err
	}
	return pcts[0], nil
}

// SystemCPU — общая загрузка CPU хоста, в процентах.
func (sm *ServerMetrics) SystemCPU() (float64, error) {
	pcts, err := cpu.Percent(time.Second, false)
	if err != nil || len(pcts) == 0 {
		return 0, err
	}
	return pcts[0], nil
}

// MemoryDetails — развёрнутая статистика рантайма для /api/stats.
func (sm *ServerMetrics) MemoryDetails() map[string]interface{} {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return map[string]interface{}{
		"alloc_mb":       float64(ms.Alloc) / 1024 / 1024,
		"total_alloc_mb": float64(ms.TotalAlloc) / 1024 / 1024,
		"sys_mb":         float64(ms.Sys) / 1024 / 1024,
		"heap_alloc_mb":  float64(ms.HeapAlloc) / 1024 / 1024,
		"heap_sys_mb":    float64(ms.HeapSys) / 1024 / 1024,
		"num_gc":         ms.NumGC,
		"goroutines":     runtime.NumGoroutine(),
	}
}
