// Package introspect 提供本地自省 HTTP 服务
//
// 默认绑定 127.0.0.1，输出 JSON 格式的诊断信息与 Prometheus 指标。
//
// # 端点
//
//	GET /debug/introspect         - 完整诊断报告 (JSON)
//	GET /debug/introspect/stats   - 消息、投递与命令计数
//	GET /debug/introspect/runtime - Go 运行时信息
//	GET /metrics                  - Prometheus 指标（提供 Gatherer 时）
//	GET /debug/pprof/*            - Go pprof 端点
//	GET /health                   - 健康检查
//
// 通过 config.Diagnostics.EnableIntrospect 启用。
package introspect
