package store

// StubName is the file name of the generated declaration stub.
const StubName = "index.d.ts"

// TypeStub documents the relagit:* modules for script authors. It is written
// once and never executed.
const TypeStub = `/** This file was generated by relagit. Do not modify it. **/

type action = "commit" | "pull_request" | "push" | "release" | "repository_dispatch" | "schedule" | "workflow_dispatch" | "remote_fetch";

interface WorkflowOptions {
    on: action | action[];
    name: string;
    description?: string;
    steps: {
        name?: string;
        run: (event: action, ...params: any[]) => Promise<void> | void;
    }[];
}

interface Context {
    Git: {
        push: () => Promise<void>;
        commit: (message: string, description?: string) => Promise<void>;
    };
    Repository: {
        path: string;
        id?: string;
        name?: string;
        branch?: string;
        [field: string]: unknown;
    };
}

interface Actions {
    Workflow: new (options: WorkflowOptions) => WorkflowOptions;
    context: () => Context;
}

declare module "relagit:actions" {
    export const Workflow: Actions["Workflow"];
    export const context: Actions["context"];
    const actions: Actions;
    export default actions;
}

declare module "relagit:client" {
    const client: {};
    export default client;
}
`
