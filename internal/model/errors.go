package model

import "errors"

// 构建过程中的错误类型
// 全部为配置/数据编写错误，发生后当前构建立即终止，不做重试
var (
	// ErrMissingComponentDefinition 组件目录中找不到对应的组件定义
	ErrMissingComponentDefinition = errors.New("missing component definition")

	// ErrInvalidInstance 实例定义不合法（缺少 name 或包含未知属性）
	ErrInvalidInstance = errors.New("invalid instance")

	// ErrRawFileNotFound 原始数据文件不存在
	ErrRawFileNotFound = errors.New("raw file not found")

	// ErrInvalidOverlaySpec 覆盖配置不合法（如缺少场景过滤列）
	ErrInvalidOverlaySpec = errors.New("invalid overlay spec")

	// ErrUnrecognizedOverlayShape 无法识别原始数据的布局形态
	ErrUnrecognizedOverlayShape = errors.New("unrecognized overlay shape")

	// ErrTargetResourceNotFound 覆盖配置指向的资源在数据包中不存在
	ErrTargetResourceNotFound = errors.New("target resource not found")
)
