package mocks

//go:generate mockery --name AlertSink --srcpkg github.com/aevon-lab/rule-engine/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name AlertReader --srcpkg github.com/aevon-lab/rule-engine/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
