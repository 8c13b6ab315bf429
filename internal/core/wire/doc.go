// Package wire 定义信封与命令消息的线上编码
//
// 编码采用 protobuf 线格式（通过 protowire 直接编码，不依赖生成代码），
// 与下面的 proto 定义兼容：
//
//	message TaggedEnvelope {
//	    string type_tag = 1;
//	    bytes  payload  = 2;
//	}
//
//	message ReliableEnvelope {
//	    int32  kind       = 1;  // 0=Message 1=Acknowledge
//	    string message_id = 2;
//	    bytes  payload    = 3;  // Acknowledge 时缺省
//	}
//
//	message CommandRequest {
//	    string command_id     = 1;
//	    int32  kind           = 2;  // Execute/Pause/Resume/Cancel
//	    bytes  input_fragment = 3;
//	}
//
//	message CommandResponse {
//	    string command_id      = 1;
//	    int32  state           = 2;
//	    bytes  return_fragment = 3;
//	    string sequence_id     = 4;
//	    bool   is_last         = 5;
//	    string error_message   = 6;
//	}
//
// 字节字段缺省时解码为 nil，显式的空值解码为非 nil 的空切片。
// 未知字段被跳过，便于向前兼容。
package wire
