// Package xdebounce 将短时间内的多次触发合并为一次执行。
//
// 每次 Trigger 重置计时器，静默 delay 之后 fn 执行一次。
// 计时器通过 Clock 接口注入，测试可以用假时钟驱动时间。
//
//	d, _ := xdebounce.New(500*time.Millisecond, store.Reload)
//	defer d.Stop()
//	d.Trigger()
package xdebounce
