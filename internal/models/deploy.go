package models

import "time"

// DeployEvent is the payload of the deploy handler
type DeployEvent struct {
	RoleName     string `json:"RoleName" validate:"required"`
	Bucket       string `json:"Bucket" validate:"required"`
	S3Key        string `json:"S3Key" validate:"required"`
	FunctionName string `json:"FunctionName" validate:"required,max=140"`
	Handler      string `json:"Handler" validate:"required"`
	RunTime      string `json:"RunTime" validate:"required"`
}

// FunctionDescriptor describes a function created on the compute platform
type FunctionDescriptor struct {
	FunctionName string    `json:"FunctionName"`
	FunctionArn  string    `json:"FunctionArn"`
	Runtime      string    `json:"Runtime"`
	Role         string    `json:"Role"`
	Handler      string    `json:"Handler"`
	CodeSize     int64     `json:"CodeSize"`
	CodeSha256   string    `json:"CodeSha256"`
	MemorySize   int32     `json:"MemorySize"`
	Timeout      int32     `json:"Timeout"`
	Version      string    `json:"Version"`
	State        string    `json:"State,omitempty"`
	LastModified string    `json:"LastModified"`
	DeployedAt   time.Time `json:"DeployedAt"`
}

// DeployResponse is returned by the deploy handler on success
type DeployResponse struct {
	Success bool                `json:"success"`
	Data    *FunctionDescriptor `json:"data"`
}
