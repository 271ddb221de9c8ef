// Package node 组装一个分片进程：设置缓存、解析、写入、失效监听、
// 热更新配置及其文件监视，并在 xrun.Group 下统一运行与关闭。
package node
