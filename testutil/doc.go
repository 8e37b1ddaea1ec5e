// Copyright 2026 Prefetch Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供 prefetch 测试的共享夹具与辅助函数。

# 概述

包含带计数的递增数据源、指定位置注错/注 panic 的数据源包装器、
可手动放行元素的门控数据源，以及带超时的测试上下文与
最终一致断言辅助。所有测试应优先复用这里的夹具，
避免各包重复实现相似的测试基础设施。
*/
package testutil
