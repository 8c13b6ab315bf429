// Package lib 包含与具体组件无关的基础设施工具库
//
//   - log: 组件 logger，基于 log/slog
//
// 各组件通过包级变量声明自己的 logger：
//
//	var logger = log.Logger("protocol/typed")
package lib
